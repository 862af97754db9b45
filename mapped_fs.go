package streamfs

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/absfs/absfs"
)

// MappedFS forwards to a base file system, rewriting every path argument
// with OnPathParameter and every returned path with OnPathResult.
type MappedFS struct {
	base   absfs.Filer
	mapper PathMapper
}

// NewMappedFS returns a file system that rewrites paths with m before
// delegating to base. Extensions of base remain visible through it.
func NewMappedFS(base absfs.Filer, m PathMapper) *MappedFS {
	if m == nil {
		m = IdentityMapper
	}
	return &MappedFS{base: base, mapper: m}
}

// Mapper returns the path mapper in use
func (m *MappedFS) Mapper() PathMapper {
	return m.mapper
}

func (m *MappedFS) in(p, op, param string) string {
	return m.mapper.OnPathParameter(p, op, param)
}

// out rewrites the paths carried by a *fs.PathError or *os.LinkError inside
// err. Errors wrapping them keep their wrapping.
func (m *MappedFS) out(err error, op string) error {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case *fs.PathError:
		return &fs.PathError{Op: e.Op, Path: m.mapper.OnPathResult(e.Path, op), Err: e.Err}
	case *os.LinkError:
		return &os.LinkError{
			Op:  e.Op,
			Old: m.mapper.OnPathResult(e.Old, op),
			New: m.mapper.OnPathResult(e.New, op),
			Err: e.Err,
		}
	}

	// Wrapped: rewrite in place so the outer chain survives
	var pe *fs.PathError
	if errors.As(err, &pe) {
		pe.Path = m.mapper.OnPathResult(pe.Path, op)
		return err
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		le.Old = m.mapper.OnPathResult(le.Old, op)
		le.New = m.mapper.OnPathResult(le.New, op)
	}
	return err
}

// Open opens a file for reading
func (m *MappedFS) Open(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens a file with specified flags and permissions
func (m *MappedFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	f, err := m.base.OpenFile(m.in(name, "OpenFile", "name"), flag, perm)
	if err != nil {
		return nil, m.out(err, "OpenFile")
	}
	return &mappedFile{File: f, name: m.mapper.OnPathResult(f.Name(), "OpenFile")}, nil
}

func (m *MappedFS) Mkdir(name string, perm fs.FileMode) error {
	return m.out(m.base.Mkdir(m.in(name, "Mkdir", "name"), perm), "Mkdir")
}

func (m *MappedFS) Remove(name string) error {
	return m.out(m.base.Remove(m.in(name, "Remove", "name")), "Remove")
}

func (m *MappedFS) Rename(oldpath, newpath string) error {
	err := m.base.Rename(m.in(oldpath, "Rename", "oldpath"), m.in(newpath, "Rename", "newpath"))
	return m.out(err, "Rename")
}

func (m *MappedFS) Stat(name string) (fs.FileInfo, error) {
	info, err := m.base.Stat(m.in(name, "Stat", "name"))
	return info, m.out(err, "Stat")
}

func (m *MappedFS) Chmod(name string, mode fs.FileMode) error {
	return m.out(m.base.Chmod(m.in(name, "Chmod", "name"), mode), "Chmod")
}

func (m *MappedFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return m.out(m.base.Chtimes(m.in(name, "Chtimes", "name"), atime, mtime), "Chtimes")
}

func (m *MappedFS) Chown(name string, uid, gid int) error {
	return m.out(m.base.Chown(m.in(name, "Chown", "name"), uid, gid), "Chown")
}

// ReadDir lists a directory. Entry names are base names and are not mapped.
func (m *MappedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	dir := m.in(name, "ReadDir", "name")
	if rd, ok := m.base.(interface {
		ReadDir(string) ([]fs.DirEntry, error)
	}); ok {
		entries, err := rd.ReadDir(dir)
		return entries, m.out(err, "ReadDir")
	}

	f, err := m.base.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return nil, m.out(err, "ReadDir")
	}
	entries, err := Use(f, func(f absfs.File) ([]fs.DirEntry, error) {
		infos, err := f.Readdir(-1)
		entries := make([]fs.DirEntry, len(infos))
		for i, info := range infos {
			entries[i] = fs.FileInfoToDirEntry(info)
		}
		return entries, err
	})
	return entries, m.out(err, "ReadDir")
}

// Extension forwards extension queries to the base file system
func (m *MappedFS) Extension(key any) (FileSystemExtension, bool) {
	if efs, ok := m.base.(ExtensionFS); ok {
		return efs.Extension(key)
	}
	return nil, false
}

// mappedFile reports the caller-visible name instead of the base name
type mappedFile struct {
	absfs.File
	name string
}

func (f *mappedFile) Name() string {
	return f.name
}
