package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/pkg/clock"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/file"
	"github.com/mfarlowe/picow-agent/pkg/gpio"
	"github.com/mfarlowe/picow-agent/tests/mocks"
)

func newTimeSyncHarness(t *testing.T, server string, interval time.Duration) (*TimeSyncService, *state.Store, string) {
	logger := zerolog.Nop()
	logPath := filepath.Join(t.TempDir(), "log.txt")
	clkFixed := mocks.FixedClock{T: time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)}
	eventLog := eventlog.New(logPath, 1<<20, file.NewFileService(), clkFixed, logger)

	synced := clock.NewSyncedClock(clock.NewSystemClock())
	store := state.NewStore()
	blinker := gpio.NewBlinker(gpio.NewMemoryPin(), logger)

	service := NewTimeSyncService(server, interval, synced, eventLog, blinker, store, logger)
	return service, store, logPath
}

// TestTimeSyncService_SyncOnce_Failure tests that an unreachable NTP server
// is logged, reported as a network error and leaves the clock alone.
func TestTimeSyncService_SyncOnce_Failure(t *testing.T) {
	// Setup: .invalid never resolves, so the query fails fast
	service, store, logPath := newTimeSyncHarness(t, "ntp.invalid", 0)

	// Execute
	err := service.SyncOnce()

	// Assert
	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNetwork))

	_, synced := store.LastTimeSync()
	assert.False(t, synced)

	content, readErr := os.ReadFile(logPath)
	assert.NoError(t, readErr)
	assert.Contains(t, string(content), "Error synchronizing time:")
}

// TestTimeSyncService_Start_RequiresInterval tests that the periodic loop
// refuses to start without an interval.
func TestTimeSyncService_Start_RequiresInterval(t *testing.T) {
	// Setup
	service, _, _ := newTimeSyncHarness(t, "pool.ntp.org", 0)

	// Execute
	err := service.Start()

	// Assert
	assert.Error(t, err)
}

// TestTimeSyncService_StartStop tests the re-sync loop lifecycle guards.
func TestTimeSyncService_StartStop(t *testing.T) {
	// Setup: interval long enough that no query fires during the test
	service, _, _ := newTimeSyncHarness(t, "pool.ntp.org", time.Hour)

	// Execute
	err := service.Start()

	// Assert
	assert.NoError(t, err)

	// Try to start again (should fail)
	err = service.Start()
	assert.Error(t, err)
	assert.Equal(t, "time sync service is already running", err.Error())

	// Cleanup
	err = service.Stop()
	assert.NoError(t, err)

	// Try to stop again (should fail)
	err = service.Stop()
	assert.Error(t, err)
	assert.Equal(t, "time sync service is not running", err.Error())
}
