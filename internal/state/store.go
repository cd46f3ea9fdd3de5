package state

import (
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/mfarlowe/picow-agent/internal/models"
)

// Keys into the runtime state map.
const (
	keyLED        = "led"
	keyConnection = "connection"
	keyLastCheck  = "last_update_check"
	keyLastSync   = "last_time_sync"
)

// Store holds the agent's volatile runtime state, shared between the web
// handlers, the connectivity monitor and the status reporter. Nothing in
// here survives a restart.
type Store struct {
	entries cmap.ConcurrentMap[string, any]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		entries: cmap.New[any](),
	}
}

// SetLEDOn records the control output level.
func (s *Store) SetLEDOn(on bool) {
	s.entries.Set(keyLED, on)
}

// LEDOn returns the recorded control output level, false before first use.
func (s *Store) LEDOn() bool {
	v, ok := s.entries.Get(keyLED)
	if !ok {
		return false
	}
	return v.(bool)
}

// SetConnection records the connectivity state.
func (s *Store) SetConnection(state models.ConnectionState) {
	s.entries.Set(keyConnection, state)
}

// Connection returns the recorded connectivity state, Disconnected before
// first use.
func (s *Store) Connection() models.ConnectionState {
	v, ok := s.entries.Get(keyConnection)
	if !ok {
		return models.ConnectionDisconnected
	}
	return v.(models.ConnectionState)
}

// SetLastUpdateCheck records the most recent update check outcome.
func (s *Store) SetLastUpdateCheck(result models.UpdateCheckResult) {
	s.entries.Set(keyLastCheck, result)
}

// LastUpdateCheck returns the most recent update check outcome, if any.
func (s *Store) LastUpdateCheck() (models.UpdateCheckResult, bool) {
	v, ok := s.entries.Get(keyLastCheck)
	if !ok {
		return models.UpdateCheckResult{}, false
	}
	return v.(models.UpdateCheckResult), true
}

// SetLastTimeSync records the instant of the last successful time sync.
func (s *Store) SetLastTimeSync(t time.Time) {
	s.entries.Set(keyLastSync, t)
}

// LastTimeSync returns the instant of the last successful time sync, if any.
func (s *Store) LastTimeSync() (time.Time, bool) {
	v, ok := s.entries.Get(keyLastSync)
	if !ok {
		return time.Time{}, false
	}
	return v.(time.Time), true
}
