package pager

import (
	"context"
	"strings"

	"github.com/psanford/sqlite3vfs"
)

// VFS adapts a Store to the SQLite VFS interface so the embedded engine can
// read database pages straight from the remote file. The filesystem is
// read-only and immutable: journals and WALs do not exist, writes are
// rejected, and locks are no-ops.
type VFS struct {
	store *Store
}

// NewVFS wraps store for registration with sqlite3vfs.RegisterVFS.
func NewVFS(store *Store) *VFS {
	return &VFS{store: store}
}

// Open hands out the single remote file regardless of name: the DSN names a
// placeholder path and there is exactly one file behind this VFS.
func (v *VFS) Open(name string, flags sqlite3vfs.OpenFlag) (sqlite3vfs.File, sqlite3vfs.OpenFlag, error) {
	if isAuxiliaryFile(name) {
		return nil, 0, sqlite3vfs.CantOpenError
	}
	return &vfsFile{store: v.store}, flags | sqlite3vfs.OpenReadOnly, nil
}

// Delete always fails: the remote file is immutable.
func (v *VFS) Delete(name string, dirSync bool) error {
	return sqlite3vfs.ReadOnlyError
}

// Access reports the main database as existing and auxiliary files (journal,
// WAL) as absent, which keeps SQLite on the rollback-free read path.
func (v *VFS) Access(name string, flag sqlite3vfs.AccessFlag) (bool, error) {
	if isAuxiliaryFile(name) {
		return false, nil
	}
	return flag == sqlite3vfs.AccessExists, nil
}

// FullPathname returns the name unchanged; there is no directory structure.
func (v *VFS) FullPathname(name string) string {
	return name
}

func isAuxiliaryFile(name string) bool {
	return strings.HasSuffix(name, "-journal") || strings.HasSuffix(name, "-wal")
}

type vfsFile struct {
	store *Store
}

func (f *vfsFile) Close() error {
	return nil
}

// ReadAt serves the requested range from the page cache, fetching missing
// pages over the network. Zero-fills past EOF per SQLite short-read
// semantics.
func (f *vfsFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.store.ReadAt(p, off)
	if err != nil {
		return n, sqlite3vfs.IOErrorRead
	}
	return n, nil
}

func (f *vfsFile) WriteAt(b []byte, off int64) (int, error) {
	return 0, sqlite3vfs.ReadOnlyError
}

func (f *vfsFile) Truncate(size int64) error {
	return sqlite3vfs.ReadOnlyError
}

func (f *vfsFile) Sync(flag sqlite3vfs.SyncType) error {
	return nil
}

func (f *vfsFile) FileSize() (int64, error) {
	return f.store.Size(context.Background())
}

// Locks are no-ops: the file is immutable and shared by read-only callers.

func (f *vfsFile) Lock(elock sqlite3vfs.LockType) error {
	return nil
}

func (f *vfsFile) Unlock(elock sqlite3vfs.LockType) error {
	return nil
}

func (f *vfsFile) CheckReservedLock() (bool, error) {
	return false, nil
}

func (f *vfsFile) SectorSize() int64 {
	return 0
}

func (f *vfsFile) DeviceCharacteristics() sqlite3vfs.DeviceCharacteristic {
	return sqlite3vfs.IocapImmutable
}
