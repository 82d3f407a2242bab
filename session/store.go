package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/mmdatafocus/shop_console/utils"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]Session{}}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = *s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// RedisStore shares sessions between console instances. Entries expire
// after the session lifespan.
type RedisStore struct {
	ttl time.Duration
}

func NewRedisStore(ttl time.Duration) *RedisStore {
	return &RedisStore{ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	return utils.RetrieveRedis[Session](ctx, id)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	return utils.StoreRedis(ctx, s.ID, s, r.ttl)
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	return utils.RemoveRedisItem[Session](ctx, id)
}

var sessionFileName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStore keeps one JSON file per session under dir, for command line tools.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(id string) (string, error) {
	if !sessionFileName.MatchString(id) {
		return "", errors.New("invalid session id")
	}
	return filepath.Join(f.dir, id+".json"), nil
}

func (f *FileStore) Load(_ context.Context, id string) (*Session, error) {
	p, err := f.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *FileStore) Save(_ context.Context, s *Session) error {
	p, err := f.path(s.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (f *FileStore) Clear(_ context.Context, id string) error {
	p, err := f.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
