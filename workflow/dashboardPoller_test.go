package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
)

type fakeDashboardSource struct {
	mu     sync.Mutex
	calls  int
	tokens []string
	errs   []error
}

func (f *fakeDashboardSource) Dashboard(ctx context.Context, token string) (*models.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.tokens = append(f.tokens, token)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	d := &models.Dashboard{}
	d.Customers.Total = models.Int(f.calls)
	return d, nil
}

func (f *fakeDashboardSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestDashboardPoller_KeepsLastGoodSnapshot(t *testing.T) {
	t.Setenv("DASHBOARD_USER_ID", "")
	src := &fakeDashboardSource{errs: []error{nil, errors.New("backend down")}}
	p := NewDashboardPoller(src, config.GetLogger())

	if err := p.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}
	if err := p.RefreshOnce(context.Background()); err == nil {
		t.Fatalf("expected second refresh to fail")
	}
	d, fetchedAt, err := p.Latest()
	if d == nil || d.Customers.Total != 1 {
		t.Fatalf("expected first snapshot to survive, got %+v", d)
	}
	if fetchedAt.IsZero() || err == nil {
		t.Fatalf("expected fetch time and last error, got %v %v", fetchedAt, err)
	}
	if src.tokens[0] != "1" {
		t.Fatalf("expected default dashboard user 1, got %q", src.tokens[0])
	}
}

func TestDashboardPoller_RunStopsOnCancel(t *testing.T) {
	src := &fakeDashboardSource{}
	p := NewDashboardPoller(src, config.GetLogger())
	p.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for src.callCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if src.callCount() < 3 {
		t.Fatalf("expected repeated polling, got %d calls", src.callCount())
	}
}

func TestDecodeInvalidation(t *testing.T) {
	cases := []struct {
		in       string
		ok       bool
		resource string
	}{
		{`{"resource":"bills","origin":"a"}`, true, "bills"},
		{`{"origin":"a"}`, false, ""},
		{`not json`, false, ""},
	}
	for _, tc := range cases {
		msg, ok := decodeInvalidation([]byte(tc.in))
		if ok != tc.ok || msg.Resource != tc.resource {
			t.Fatalf("decodeInvalidation(%q) expected %v %q, got %v %q", tc.in, tc.ok, tc.resource, ok, msg.Resource)
		}
	}
}
