package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmdatafocus/shop_console/client"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/mmdatafocus/shop_console/utils"
)

type fakeAuth struct {
	result *client.LoginResult
	err    error
	calls  int
}

func (f *fakeAuth) Login(ctx context.Context, phone, password string) (*client.LoginResult, error) {
	f.calls++
	return f.result, f.err
}

func adminLogin() *client.LoginResult {
	return &client.LoginResult{
		User: models.User{ID: 12, Name: "Asha", Phone: "9876543210", Role: models.UserRoleAdmin},
		Permissions: models.Permissions{
			Dashboard: 1,
			Bills:     1,
			Reports:   0,
		},
	}
}

func TestManager_LoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
	}
	for name, store := range stores {
		m := NewManager(&fakeAuth{result: adminLogin()}, store, time.Hour)

		s, token, err := m.Login(ctx, "9876543210", "secret")
		if err != nil {
			t.Fatalf("%s: Login: %v", name, err)
		}
		if s.Token != "12" {
			t.Fatalf("%s: expected backend credential 12, got %q", name, s.Token)
		}
		if !s.Has(models.CapabilityBills) || s.Has(models.CapabilityReports) || !s.IsAdmin() {
			t.Fatalf("%s: unexpected capabilities on %+v", name, s)
		}

		restored, err := m.FromToken(ctx, token)
		if err != nil {
			t.Fatalf("%s: FromToken: %v", name, err)
		}
		if restored.ID != s.ID || restored.User.Name != "Asha" || restored.Permissions.Dashboard != 1 {
			t.Fatalf("%s: restored session differs: %+v", name, restored)
		}

		if err := m.Logout(ctx, s.ID); err != nil {
			t.Fatalf("%s: Logout: %v", name, err)
		}
		if _, err := m.FromToken(ctx, token); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound after logout, got %v", name, err)
		}
	}
}

func TestManager_LoginFailureStoresNothing(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(&fakeAuth{err: errors.New("invalid credentials")}, store, time.Hour)

	if _, _, err := m.Login(context.Background(), "9876543210", "bad"); err == nil {
		t.Fatalf("expected login error")
	}
	if len(store.sessions) != 0 {
		t.Fatalf("expected no stored session, got %d", len(store.sessions))
	}
}

func TestManager_RestoreClearsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	id := "3f0c2a9e-1111-4e0b-9a57-2b1e0c6d8f10"
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := NewManager(&fakeAuth{}, NewFileStore(dir), time.Hour)

	if _, err := m.Restore(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected corrupt session file to be removed, stat err %v", err)
	}
}

func TestManager_FromTokenRejectsMismatchedUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(&fakeAuth{result: adminLogin()}, store, time.Hour)
	s, _, err := m.Login(ctx, "9876543210", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	forged, err := utils.JwtGenerate(s.ID, 99, "admin", time.Hour)
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	if _, err := m.FromToken(ctx, forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := m.FromToken(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestFileStore_RejectsPathLikeIds(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, err := store.Load(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected error for path-like id")
	}
}
