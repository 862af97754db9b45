package streamfs

import (
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/absfs/absfs"
	"go.uber.org/zap"
)

// Open opens a file for reading
func (cfs *FS) Open(name string) (absfs.File, error) {
	return cfs.OpenFile(name, os.O_RDONLY, 0)
}

// Create creates a new file for writing
func (cfs *FS) Create(name string) (absfs.File, error) {
	return cfs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// OpenFile opens a file with specified flags and permissions. Files opened
// for writing are compressed when closed; files opened for reading are
// decompressed as they are read.
func (cfs *FS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 {
		return cfs.openForWrite(name, flag, perm)
	}
	return cfs.openForRead(name, flag)
}

func (cfs *FS) openForWrite(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	if cfs.shouldSkip(name) {
		cfs.stats.filesSkipped.Add(1)
		return cfs.base.OpenFile(name, flag, perm)
	}
	if flag&os.O_APPEND != 0 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: ErrAppendNotSupported}
	}

	algo, level := cfs.settings()
	stored := name
	if extAlgo, ok := DetectAlgorithmFromExtension(name); ok {
		// An explicit extension picks the algorithm
		if extAlgo != algo {
			level = 0
		}
		algo = extAlgo
	} else {
		stored = AddExtension(name, algo, cfs.config.PreserveExtension)
	}

	// The whole stream is rewritten on close
	flag = flag&^os.O_RDWR | os.O_WRONLY | os.O_TRUNC
	base, err := cfs.base.OpenFile(stored, flag, perm)
	if err != nil {
		return nil, err
	}
	return newWriteFile(cfs, base, name, stored, algo, level), nil
}

func (cfs *FS) openForRead(name string, flag int) (absfs.File, error) {
	stored, algo := cfs.resolve(name)
	base, err := cfs.base.OpenFile(stored, flag, 0)
	if err != nil {
		return nil, err
	}

	info, err := base.Stat()
	if err != nil {
		base.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if info.IsDir() || info.Size() == 0 {
		return base, nil
	}
	if algo == "" && !cfs.config.AutoDetect {
		return base, nil
	}

	// Peek at the head without seeking; the buffered bytes are replayed to
	// the decompressor
	src := NewBufferedSource(SourceFromReader(base))
	if _, err := src.Request(maxMagicLen); err != nil {
		src.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	detected, compressed := IsCompressed(src.Buffer().Snapshot())
	switch {
	case compressed:
		algo = detected
	case algo != "" && hasMagic(algo):
		// Named as compressed but stored plain, e.g. below MinSize
		algo = ""
	}

	if algo == "" {
		return newPlainFile(base, src), nil
	}

	inf, err := NewInflater(algo)
	if err != nil {
		src.Close()
		return nil, err
	}
	cfs.log.Debug("decompressing", zap.String("name", name), zap.String("stored", stored), zap.String("algorithm", string(algo)))
	return newReadFile(cfs, base, name, algo, NewInflaterSource(src, inf)), nil
}

// resolve finds the stored name for name and the algorithm its extension
// implies
func (cfs *FS) resolve(name string) (string, Algorithm) {
	if algo, ok := DetectAlgorithmFromExtension(name); ok {
		return name, algo
	}
	if _, err := cfs.base.Stat(name); err == nil || !cfs.config.StripExtension {
		return name, ""
	}

	algo, _ := cfs.settings()
	for _, candidate := range append([]Algorithm{algo}, Algorithms...) {
		stored := name + GetExtension(candidate)
		if _, err := cfs.base.Stat(stored); err == nil {
			return stored, candidate
		}
	}
	return name, ""
}

// Mkdir creates a directory
func (cfs *FS) Mkdir(name string, perm fs.FileMode) error {
	return cfs.base.Mkdir(name, perm)
}

// Remove removes a file or directory, finding its compressed form if needed
func (cfs *FS) Remove(name string) error {
	stored, _ := cfs.resolve(name)
	return cfs.base.Remove(stored)
}

// Rename renames a file. A compressed sibling keeps its extension.
func (cfs *FS) Rename(oldpath, newpath string) error {
	stored, _ := cfs.resolve(oldpath)
	if stored != oldpath && !HasCompressionExtension(newpath) {
		newpath += strings.TrimPrefix(stored, oldpath)
	}
	return cfs.base.Rename(stored, newpath)
}

// Stat returns file information of the stored file
func (cfs *FS) Stat(name string) (fs.FileInfo, error) {
	stored, _ := cfs.resolve(name)
	return cfs.base.Stat(stored)
}

func (cfs *FS) Chmod(name string, mode fs.FileMode) error {
	stored, _ := cfs.resolve(name)
	return cfs.base.Chmod(stored, mode)
}

func (cfs *FS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	stored, _ := cfs.resolve(name)
	return cfs.base.Chtimes(stored, atime, mtime)
}

func (cfs *FS) Chown(name string, uid, gid int) error {
	stored, _ := cfs.resolve(name)
	return cfs.base.Chown(stored, uid, gid)
}

// ReadDir reads directory contents. With StripExtension, compressed entries
// are listed under their plain names.
func (cfs *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := cfs.base.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	infos, err := Use(f, func(f absfs.File) ([]os.FileInfo, error) {
		infos, err := f.Readdir(-1)
		if err == io.EOF {
			err = nil
		}
		return infos, err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, 0, len(infos))
	seen := make(map[string]bool)
	for _, info := range infos {
		entry := fs.FileInfoToDirEntry(info)
		entryName := info.Name()
		if cfs.config.StripExtension {
			if stripped, _, ok := StripExtension(entryName); ok {
				entryName = stripped
				entry = &renamedDirEntry{DirEntry: entry, name: stripped}
			}
		}
		if seen[entryName] {
			continue
		}
		seen[entryName] = true
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// renamedDirEntry wraps a DirEntry with a different name
type renamedDirEntry struct {
	fs.DirEntry
	name string
}

func (e *renamedDirEntry) Name() string {
	return e.name
}
