package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is the authenticated user, their capabilities and the credential
// sent to the backend. It is replaced as a whole, never patched.
type Session struct {
	ID          string             `json:"id"`
	User        models.User        `json:"user"`
	Permissions models.Permissions `json:"permissions"`
	Token       string             `json:"token"`
	CreatedAt   time.Time          `json:"created_at"`
}

func (s *Session) valid() bool {
	return s != nil && s.ID != "" && s.User.ID > 0 && s.Token != ""
}

func (s *Session) Has(c models.Capability) bool {
	if s == nil {
		return false
	}
	return models.HasCapability(&s.Permissions, c)
}

func (s *Session) IsAdmin() bool {
	return s != nil && models.CanManageStaff(&s.User)
}

// Store persists sessions. Load returns nil, nil when there is none.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, id string) error
}

type Authenticator interface {
	Login(ctx context.Context, phone, password string) (*client.LoginResult, error)
}

type Manager struct {
	auth     Authenticator
	store    Store
	lifespan time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

func NewManager(auth Authenticator, store Store, lifespan time.Duration) *Manager {
	return &Manager{
		auth:     auth,
		store:    store,
		lifespan: lifespan,
		logger:   config.GetLogger(),
		now:      time.Now,
	}
}

// Login authenticates against the backend, persists the new session and
// returns it with a signed token naming it.
func (m *Manager) Login(ctx context.Context, phone, password string) (*Session, string, error) {
	result, err := m.auth.Login(ctx, phone, password)
	if err != nil {
		return nil, "", err
	}
	s := &Session{
		ID:          uuid.NewString(),
		User:        result.User,
		Permissions: result.Permissions,
		Token:       strconv.Itoa(int(result.User.ID)),
		CreatedAt:   m.now(),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, "", err
	}
	signed, err := utils.JwtGenerate(s.ID, int(s.User.ID), string(s.User.Role), m.lifespan)
	if err != nil {
		_ = m.store.Clear(ctx, s.ID)
		return nil, "", err
	}
	return s, signed, nil
}

func (m *Manager) Logout(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return m.store.Clear(ctx, id)
}

// Restore loads a persisted session. Unreadable or incomplete data is
// cleared and treated as logged out.
func (m *Manager) Restore(ctx context.Context, id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	s, err := m.store.Load(ctx, id)
	if err != nil || !s.valid() {
		if err != nil {
			config.LogError(m.logger, "SessionManager", "Restore", id, nil, err)
		}
		if s != nil || err != nil {
			_ = m.store.Clear(ctx, id)
		}
		return nil, ErrNotFound
	}
	return s, nil
}

// FromToken validates a signed token and restores the session it names.
func (m *Manager) FromToken(ctx context.Context, token string) (*Session, error) {
	parsed, err := utils.JwtValidate(token)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claim, ok := parsed.Claims.(*utils.JwtCustomClaim)
	if !ok || claim.SessionId == "" {
		return nil, ErrInvalidToken
	}
	s, err := m.Restore(ctx, claim.SessionId)
	if err != nil {
		return nil, err
	}
	if int(s.User.ID) != claim.ID {
		return nil, ErrInvalidToken
	}
	return s, nil
}
