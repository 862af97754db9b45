package streamfs

import (
	"github.com/absfs/absfs"
)

// FileSystemExtension marks a type as an optional file system capability
// that can be attached with Extend and looked up with Extension.
type FileSystemExtension interface {
	FileSystemExtension()
}

// ExtensionKey identifies one kind of extension. Keys compare by identity,
// so two keys created with the same name are still distinct.
type ExtensionKey[E FileSystemExtension] struct {
	name string
}

// NewExtensionKey returns a new key for extensions of type E
func NewExtensionKey[E FileSystemExtension](name string) *ExtensionKey[E] {
	return &ExtensionKey[E]{name: name}
}

func (k *ExtensionKey[E]) String() string {
	return k.name
}

// ExtensionFS is a file system that can answer extension queries
type ExtensionFS interface {
	absfs.Filer

	// Extension returns the extension registered under key, if any
	Extension(key any) (FileSystemExtension, bool)
}

// Extend returns a file system that forwards all calls to fsys and that
// returns ext whenever key is requested, regardless of what fsys reports
// for key. Other keys are forwarded to fsys.
func Extend[E FileSystemExtension](fsys absfs.Filer, key *ExtensionKey[E], ext E) ExtensionFS {
	return &extendedFS{Filer: fsys, key: key, ext: ext}
}

// Extension returns the extension registered under key on fsys. It reports
// false if fsys is not an ExtensionFS or has nothing for key.
func Extension[E FileSystemExtension](fsys absfs.Filer, key *ExtensionKey[E]) (E, bool) {
	var zero E
	efs, ok := fsys.(ExtensionFS)
	if !ok {
		return zero, false
	}
	ext, ok := efs.Extension(key)
	if !ok {
		return zero, false
	}
	e, ok := ext.(E)
	if !ok {
		return zero, false
	}
	return e, true
}

type extendedFS struct {
	absfs.Filer
	key any
	ext FileSystemExtension
}

func (e *extendedFS) Extension(key any) (FileSystemExtension, bool) {
	if key == e.key {
		return e.ext, true
	}
	if efs, ok := e.Filer.(ExtensionFS); ok {
		return efs.Extension(key)
	}
	return nil, false
}
