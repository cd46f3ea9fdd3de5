package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/pkg/clock"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/gpio"
)

// TimeSyncService aligns the agent's clock with an NTP server. Corrections
// go into the shared SyncedClock offset; the system clock is never touched,
// so the agent needs no privileges beyond a UDP socket.
type TimeSyncService struct {
	server   string
	interval time.Duration // zero disables the periodic loop

	clk      *clock.SyncedClock
	eventLog *eventlog.Logger
	blinker  *gpio.Blinker
	store    *state.Store
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTimeSyncService initializes a new TimeSyncService.
func NewTimeSyncService(server string, interval time.Duration, clk *clock.SyncedClock,
	eventLog *eventlog.Logger, blinker *gpio.Blinker, store *state.Store,
	logger zerolog.Logger) *TimeSyncService {

	return &TimeSyncService{
		server:   server,
		interval: interval,
		clk:      clk,
		eventLog: eventLog,
		blinker:  blinker,
		store:    store,
		logger:   logger,
	}
}

// SyncOnce queries the NTP server and applies the measured offset. Failure
// is logged and reported but never fatal; the clock just keeps its previous
// offset.
func (s *TimeSyncService) SyncOnce() error {
	resp, err := ntp.Query(s.server)
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		s.eventLog.Log(fmt.Sprintf("Error synchronizing time: %v", err))
		s.logger.Warn().Err(err).Str("server", s.server).Msg("Time synchronization failed")
		return fmt.Errorf("%w: time synchronization failed: %v", models.ErrNetwork, err)
	}

	s.clk.SetOffset(resp.ClockOffset)
	s.store.SetLastTimeSync(s.clk.Now())
	s.eventLog.Log("Time synchronized with NTP")
	s.logger.Info().Dur("offset", resp.ClockOffset).Str("server", s.server).Msg("Time synchronized with NTP")
	s.blinker.Flash(3, 300*time.Millisecond)

	return nil
}

// Start launches the periodic re-sync loop. With no interval configured
// there is nothing to run and Start fails.
func (s *TimeSyncService) Start() error {
	if s.interval <= 0 {
		return errors.New("time sync service has no re-sync interval configured")
	}
	if s.ctx != nil {
		s.logger.Warn().Msg("TimeSyncService is already running")
		return errors.New("time sync service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSyncLoop()
	}()

	s.logger.Info().Dur("interval", s.interval).Str("server", s.server).Msg("TimeSyncService started successfully")
	return nil
}

// Stop gracefully stops the re-sync loop.
func (s *TimeSyncService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("TimeSyncService is not running")
		return errors.New("time sync service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("TimeSyncService stopped successfully")
	return nil
}

// runSyncLoop re-syncs on the configured interval until stopped.
func (s *TimeSyncService) runSyncLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Errors are already logged; the loop carries on.
			_ = s.SyncOnce()

		case <-s.ctx.Done():
			s.logger.Info().Msg("TimeSyncService stopping gracefully")
			return
		}
	}
}
