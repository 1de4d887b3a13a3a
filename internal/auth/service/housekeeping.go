package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/evalua/evalua/internal/auth/store"
)

// DefaultCleanupInterval is how often the sweeper runs when the config does
// not say otherwise.
const DefaultCleanupInterval = 6 * time.Hour

// HousekeepingService periodically reclaims refresh tokens that can never be
// used again (expired or revoked), keeping the table bounded. Reset tokens
// are not its business: issuance and validation already clean those up.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService builds the sweeper. A non-positive interval falls
// back to DefaultCleanupInterval.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; pair with Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", slog.Duration("interval", s.Interval))
}

// Stop shuts the worker down and waits for any in-progress sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// First sweep right away so a restart doesn't defer cleanup a full tick.
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes, in one batch, every refresh token that is expired or revoked
// as persisted at read time. A token invalidated mid-sweep is simply caught
// next time. Errors are logged and swallowed; the sweeper never brings the
// service down.
func (s *HousekeepingService) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	n, err := s.Store.RefreshTokens().DeleteDefunctRefreshTokens(ctx, now)
	if err != nil {
		s.Logger.Error("refresh token sweep failed", slog.Any("error", err))
		return
	}
	s.Logger.Info("refresh token sweep completed", slog.Int64("deleted", n))
}
