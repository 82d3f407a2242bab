package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/mmdatafocus/shop_console/config"
	"github.com/mmdatafocus/shop_console/models"
	"github.com/sirupsen/logrus"
)

type DashboardSource interface {
	Dashboard(ctx context.Context, token string) (*models.Dashboard, error)
}

// DashboardPoller keeps the latest dashboard summary fresh. One poller is
// shared by every session; it reads as a single configured backend user.
type DashboardPoller struct {
	Source       DashboardSource
	Logger       *logrus.Logger
	UserId       string
	PollInterval time.Duration

	mu        sync.RWMutex
	latest    *models.Dashboard
	fetchedAt time.Time
	lastErr   error
}

func NewDashboardPoller(src DashboardSource, logger *logrus.Logger) *DashboardPoller {
	return &DashboardPoller{
		Source:       src,
		Logger:       logger,
		UserId:       config.DashboardUserId(),
		PollInterval: config.DashboardRefreshInterval(),
	}
}

func (p *DashboardPoller) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_ = p.RefreshOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.PollInterval):
		}
	}
}

// RefreshOnce fetches the summary. A failure keeps the previous snapshot.
func (p *DashboardPoller) RefreshOnce(ctx context.Context) error {
	d, err := p.Source.Dashboard(ctx, p.UserId)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		if ctx.Err() == nil {
			config.LogError(p.Logger, "DashboardPoller", "RefreshOnce", "dashboard", p.UserId, err)
		}
		return err
	}
	p.latest = d
	p.fetchedAt = time.Now()
	return nil
}

// Latest returns the last good snapshot, when it was fetched and the error of
// the most recent attempt.
func (p *DashboardPoller) Latest() (*models.Dashboard, time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.fetchedAt, p.lastErr
}
