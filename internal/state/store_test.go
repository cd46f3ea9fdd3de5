package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mfarlowe/picow-agent/internal/models"
)

func TestStoreDefaults(t *testing.T) {
	store := NewStore()

	assert.False(t, store.LEDOn())
	assert.Equal(t, models.ConnectionDisconnected, store.Connection())

	_, ok := store.LastUpdateCheck()
	assert.False(t, ok)

	_, ok = store.LastTimeSync()
	assert.False(t, ok)
}

func TestStoreRoundTrips(t *testing.T) {
	store := NewStore()

	store.SetLEDOn(true)
	assert.True(t, store.LEDOn())

	store.SetConnection(models.ConnectionConnected)
	assert.Equal(t, models.ConnectionConnected, store.Connection())

	result := models.UpdateCheckResult{
		Status:    models.UpdateStatusUpToDate,
		CheckID:   "abc",
		CheckedAt: time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC),
	}
	store.SetLastUpdateCheck(result)
	got, ok := store.LastUpdateCheck()
	assert.True(t, ok)
	assert.Equal(t, result, got)

	syncedAt := time.Date(2024, time.July, 10, 12, 0, 5, 0, time.UTC)
	store.SetLastTimeSync(syncedAt)
	gotSync, ok := store.LastTimeSync()
	assert.True(t, ok)
	assert.Equal(t, syncedAt, gotSync)
}

func TestStoreConcurrentWriters(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(on bool) {
			defer wg.Done()
			store.SetLEDOn(on)
			store.SetConnection(models.ConnectionConnecting)
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, models.ConnectionConnecting, store.Connection())
}
