// Package memfs is a small in-memory absfs.Filer used by the tests of the
// file system decorators.
package memfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

var errIsDir = errors.New("is a directory")

// FS is an in-memory file system. It is safe for concurrent use; the files
// it returns are not.
type FS struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

type node struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
	uid     int
	gid     int
}

func (n *node) isDir() bool { return n.mode.IsDir() }

// New returns an empty file system containing only the root directory
func New() *FS {
	return &FS{
		nodes: map[string]*node{
			"/": {mode: fs.ModeDir | 0755, modTime: time.Now()},
		},
	}
}

// normalize maps any spelling of a path to its key
func normalize(name string) string {
	return path.Clean("/" + name)
}

func (m *FS) Open(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDONLY, 0)
}

func (m *FS) Create(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (m *FS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(name)
	n, exists := m.nodes[key]
	switch {
	case !exists && flag&os.O_CREATE == 0:
		return nil, &fs.PathError{Op: "open", Path: key, Err: fs.ErrNotExist}
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, &fs.PathError{Op: "open", Path: key, Err: fs.ErrExist}
	case !exists:
		parent, ok := m.nodes[path.Dir(key)]
		if !ok || !parent.isDir() {
			return nil, &fs.PathError{Op: "open", Path: key, Err: fs.ErrNotExist}
		}
		n = &node{mode: perm &^ fs.ModeType, modTime: time.Now()}
		m.nodes[key] = n
	}

	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0
	if n.isDir() && writable {
		return nil, &fs.PathError{Op: "open", Path: key, Err: errIsDir}
	}
	if flag&os.O_TRUNC != 0 && writable {
		n.data = nil
		n.modTime = time.Now()
	}

	f := &file{fsys: m, node: n, name: key, flag: flag}
	if flag&os.O_APPEND != 0 {
		f.pos = int64(len(n.data))
	}
	return f, nil
}

func (m *FS) Mkdir(name string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(name)
	if _, exists := m.nodes[key]; exists {
		return &fs.PathError{Op: "mkdir", Path: key, Err: fs.ErrExist}
	}
	if parent, ok := m.nodes[path.Dir(key)]; !ok || !parent.isDir() {
		return &fs.PathError{Op: "mkdir", Path: key, Err: fs.ErrNotExist}
	}
	m.nodes[key] = &node{mode: fs.ModeDir | perm.Perm(), modTime: time.Now()}
	return nil
}

func (m *FS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(name)
	n, exists := m.nodes[key]
	if !exists {
		return &fs.PathError{Op: "remove", Path: key, Err: fs.ErrNotExist}
	}
	if n.isDir() && len(m.children(key)) > 0 {
		return &fs.PathError{Op: "remove", Path: key, Err: errors.New("directory not empty")}
	}
	delete(m.nodes, key)
	return nil
}

func (m *FS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from, to := normalize(oldpath), normalize(newpath)
	n, exists := m.nodes[from]
	if !exists {
		return &os.LinkError{Op: "rename", Old: from, New: to, Err: fs.ErrNotExist}
	}
	if n.isDir() {
		return &os.LinkError{Op: "rename", Old: from, New: to, Err: errIsDir}
	}
	m.nodes[to] = n
	delete(m.nodes, from)
	return nil
}

func (m *FS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := normalize(name)
	n, exists := m.nodes[key]
	if !exists {
		return nil, &fs.PathError{Op: "stat", Path: key, Err: fs.ErrNotExist}
	}
	return n.info(key), nil
}

// ReadDir returns the entries of a directory sorted by name
func (m *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := m.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.(*file).ReadDir(-1)
}

func (m *FS) Chmod(name string, mode fs.FileMode) error {
	return m.update("chmod", name, func(n *node) {
		n.mode = n.mode&fs.ModeType | mode.Perm()
	})
}

func (m *FS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return m.update("chtimes", name, func(n *node) { n.modTime = mtime })
}

func (m *FS) Chown(name string, uid, gid int) error {
	return m.update("chown", name, func(n *node) { n.uid, n.gid = uid, gid })
}

func (m *FS) update(op, name string, fn func(*node)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalize(name)
	n, exists := m.nodes[key]
	if !exists {
		return &fs.PathError{Op: op, Path: key, Err: fs.ErrNotExist}
	}
	fn(n)
	return nil
}

// children returns the sorted base names directly under dir; caller holds mu
func (m *FS) children(dir string) []string {
	prefix := dir
	if prefix != "/" {
		prefix += "/"
	}
	var names []string
	for key := range m.nodes {
		if key == dir || !strings.HasPrefix(key, prefix) {
			continue
		}
		if rest := key[len(prefix):]; !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names
}

func (n *node) info(key string) *fileInfo {
	return &fileInfo{
		name:    path.Base(key),
		size:    int64(len(n.data)),
		mode:    n.mode,
		modTime: n.modTime,
	}
}

type fileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *fileInfo) Sys() any           { return nil }

// file is a handle on a node with its own offset
type file struct {
	fsys   *FS
	node   *node
	name   string
	flag   int
	pos    int64
	dirPos int
	closed bool
}

func (f *file) Name() string { return f.name }

func (f *file) check(op string, write bool) error {
	if f.closed {
		return &fs.PathError{Op: op, Path: f.name, Err: fs.ErrClosed}
	}
	if write && f.flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return &fs.PathError{Op: op, Path: f.name, Err: fs.ErrPermission}
	}
	if !write && f.flag&os.O_WRONLY != 0 {
		return &fs.PathError{Op: op, Path: f.name, Err: fs.ErrPermission}
	}
	return nil
}

func (f *file) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if err := f.check("read", false); err != nil {
		return 0, err
	}
	if f.node.isDir() {
		return 0, &fs.PathError{Op: "read", Path: f.name, Err: errIsDir}
	}
	f.fsys.mu.RLock()
	defer f.fsys.mu.RUnlock()

	if off >= int64(len(f.node.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.node.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	if f.flag&os.O_APPEND != 0 {
		f.fsys.mu.RLock()
		f.pos = int64(len(f.node.data))
		f.fsys.mu.RUnlock()
	}
	n, err := f.WriteAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *file) WriteAt(p []byte, off int64) (int, error) {
	if err := f.check("write", true); err != nil {
		return 0, err
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	if end := off + int64(len(p)); end > int64(len(f.node.data)) {
		grown := make([]byte, end)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	copy(f.node.data[off:], p)
	f.node.modTime = time.Now()
	return len(p), nil
}

func (f *file) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrClosed}
	}
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = f.pos + offset
	case io.SeekEnd:
		f.fsys.mu.RLock()
		pos = int64(len(f.node.data)) + offset
		f.fsys.mu.RUnlock()
	default:
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	if pos < 0 {
		return 0, &fs.PathError{Op: "seek", Path: f.name, Err: fs.ErrInvalid}
	}
	f.pos = pos
	return pos, nil
}

func (f *file) Stat() (fs.FileInfo, error) {
	f.fsys.mu.RLock()
	defer f.fsys.mu.RUnlock()
	return f.node.info(f.name), nil
}

func (f *file) Sync() error {
	if f.closed {
		return &fs.PathError{Op: "sync", Path: f.name, Err: fs.ErrClosed}
	}
	return nil
}

func (f *file) Truncate(size int64) error {
	if err := f.check("truncate", true); err != nil {
		return err
	}
	if size < 0 {
		return &fs.PathError{Op: "truncate", Path: f.name, Err: fs.ErrInvalid}
	}
	f.fsys.mu.Lock()
	defer f.fsys.mu.Unlock()

	data := make([]byte, size)
	copy(data, f.node.data)
	f.node.data = data
	return nil
}

func (f *file) Readdir(n int) ([]os.FileInfo, error) {
	names, err := f.Readdirnames(n)
	if err != nil && len(names) == 0 {
		return nil, err
	}

	f.fsys.mu.RLock()
	defer f.fsys.mu.RUnlock()
	infos := make([]os.FileInfo, 0, len(names))
	for _, name := range names {
		key := path.Join(f.name, name)
		if child, ok := f.fsys.nodes[key]; ok {
			infos = append(infos, child.info(key))
		}
	}
	return infos, err
}

func (f *file) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := f.Readdir(n)
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, err
}

func (f *file) Readdirnames(n int) ([]string, error) {
	if f.closed {
		return nil, &fs.PathError{Op: "readdir", Path: f.name, Err: fs.ErrClosed}
	}
	if !f.node.isDir() {
		return nil, &fs.PathError{Op: "readdir", Path: f.name, Err: errors.New("not a directory")}
	}

	f.fsys.mu.RLock()
	names := f.fsys.children(f.name)
	f.fsys.mu.RUnlock()

	rest := names[min(f.dirPos, len(names)):]
	if n <= 0 {
		f.dirPos = len(names)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	rest = rest[:min(n, len(rest))]
	f.dirPos += len(rest)
	return rest, nil
}

func (f *file) Close() error {
	if f.closed {
		return &fs.PathError{Op: "close", Path: f.name, Err: fs.ErrClosed}
	}
	f.closed = true
	return nil
}
