package files

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/udovin/solve-server/cache"
	"github.com/udovin/solve-server/db/builder"
	"github.com/udovin/solve-server/store"
)

// pendingTTL is how long an uploaded-but-unconfirmed File stays reserved
// before it becomes eligible for cleanup.
const pendingTTL = 60 * time.Second

// ErrNotAvailable is returned by Manager.Download when the file exists but
// has not (yet, or any longer) been confirmed Available.
var ErrNotAvailable = errors.New("files: not available")

// storageCache adapts a Storage into the cache.Store[string,string]
// contract a cache.Manager coordinates loads through.
type storageCache struct {
	storage Storage
}

func (s storageCache) Load(ctx context.Context, key string) (string, error) {
	return s.storage.Load(ctx, key)
}

func (s storageCache) Free(ctx context.Context, key string, value string) {
	s.storage.Free(ctx, key, value)
}

// Manager implements the file manager: load resolves a confirmed File's
// content to a local path through the cache manager; upload streams
// through MD5 and SHA3-224 while writing to storage and reserves a
// Pending row with a TTL; delete enforces the same Pending/TTL fencing as
// confirm.
type Manager struct {
	files   *Store
	storage Storage
	cache   *cache.Manager[string, string]
}

// NewManager builds a Manager over files/storage, caching resolved local
// paths with the given LRU capacity.
func NewManager(files *Store, storage Storage, cacheCapacity int) *Manager {
	return &Manager{
		files:   files,
		storage: storage,
		cache:   cache.NewManager[string, string](storageCache{storage: storage}, cache.NewLRUCache[string, string](cacheCapacity)),
	}
}

// Handle is a resolved, ready-to-read File: its content is guaranteed
// present at a local path until Release is called.
type Handle struct {
	File *File
	path cache.Object[string]
}

// Open opens the handle's content for reading.
func (h *Handle) Open() (*os.File, error) {
	return os.Open(h.path.Value())
}

// Release returns the handle's cache reference, allowing the cache to free
// the underlying local copy once nothing else references it.
func (h *Handle) Release() {
	h.path.Release()
}

// Download resolves id to a readable Handle. It rejects ids whose File is
// not Available.
func (m *Manager) Download(ctx context.Context, id int64) (*Handle, error) {
	file, err := m.files.Get(ctx, store.Ctx{}, id)
	if err != nil {
		return nil, err
	}
	if file.Status != StatusAvailable {
		return nil, ErrNotAvailable
	}
	path, err := m.cache.Load(ctx, file.Path)
	if err != nil {
		return nil, fmt.Errorf("files: resolve path: %w", err)
	}
	return &Handle{File: file, path: path}, nil
}

// PendingFile is a just-uploaded File awaiting Confirm.
type PendingFile struct {
	model *File
	files *Store
}

// File returns the underlying Pending row.
func (p *PendingFile) File() *File { return p.model }

// Confirm transitions the file Pending -> Available, fenced on
// status=Pending, clearing expire_time.
func (p *PendingFile) Confirm(ctx context.Context) (*File, error) {
	next := *p.model
	next.Status = StatusAvailable
	next.ExpireTime = nil
	fence := builder.Column("status").Equal(int64(StatusPending))
	event, err := p.files.UpdateWhere(ctx, store.Ctx{}, &next, fence)
	if err != nil {
		return nil, err
	}
	return event.Object, nil
}

// Upload allocates a storage key, persists a Pending File row with a 60s
// TTL, and streams r through storage while hashing with MD5 and SHA3-224,
// recording the result in the row's meta.
func (m *Manager) Upload(ctx context.Context, name string, r io.Reader) (*PendingFile, error) {
	key, err := m.storage.GenerateKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("files: generate key: %w", err)
	}
	expire := time.Now().UTC().Add(pendingTTL)
	created, err := m.files.Create(ctx, store.Ctx{}, &File{Status: StatusPending, Path: key, ExpireTime: &expire})
	if err != nil {
		return nil, err
	}
	md5h := md5.New()
	sha3h := sha3.New224()
	tee := io.TeeReader(r, io.MultiWriter(md5h, sha3h))
	result, err := m.storage.Upload(ctx, key, tee)
	if err != nil {
		return nil, fmt.Errorf("files: upload: %w", err)
	}
	meta := Meta{
		Name:     name,
		Size:     result.Size,
		MD5:      hex.EncodeToString(md5h.Sum(nil)),
		SHA3_224: hex.EncodeToString(sha3h.Sum(nil)),
	}
	f := *created.Object
	if err := f.SetMeta(meta); err != nil {
		return nil, err
	}
	event, err := m.files.Update(ctx, store.Ctx{}, &f)
	if err != nil {
		return nil, err
	}
	return &PendingFile{model: event.Object, files: m.files}, nil
}

// Delete removes id: if it is already Pending and its TTL has not expired,
// deletion is refused (a concurrent upload still owns it); otherwise it is
// marked Pending with a fresh TTL, removed from storage, then its row is
// deleted fenced on status=Pending.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	f, err := m.files.Get(ctx, store.Ctx{}, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if f.Status == StatusPending && f.ExpireTime != nil && f.ExpireTime.After(now) {
		return fmt.Errorf("files: delete id %d: pending upload still in progress", id)
	}
	expire := now.Add(pendingTTL)
	reserved := *f
	reserved.Status = StatusPending
	reserved.ExpireTime = &expire
	if _, err := m.files.Update(ctx, store.Ctx{}, &reserved); err != nil {
		return err
	}
	if err := m.storage.Delete(ctx, f.Path); err != nil {
		return err
	}
	fence := builder.Column("status").Equal(int64(StatusPending))
	_, err = m.files.DeleteWhere(ctx, store.Ctx{}, id, fence)
	return err
}
