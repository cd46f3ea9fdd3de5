package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/tests/mocks"
)

// TestStatusService_PublishStatus tests that a report is serialized and
// published on the configured topic.
func TestStatusService_PublishStatus(t *testing.T) {
	// Setup
	mockMqttClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)
	mockDeviceInfo := new(mocks.MockDeviceInfo)
	logger := zerolog.Nop()

	mockToken.On("Wait").Return(true)
	mockToken.On("Error").Return(nil)
	mockMqttClient.On("Publish", "iot/status", byte(1), false, mock.Anything).Return(mockToken)

	service := NewStatusService("iot/status", time.Second, time.Second, 1, nil,
		mockDeviceInfo, mockMqttClient, state.NewStore(),
		mocks.FixedClock{T: time.Now()}, logger)

	status := &models.DeviceStatus{
		DeviceID:   "device123",
		Timestamp:  time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC),
		LEDOn:      true,
		Connection: models.ConnectionConnected,
	}
	payload, err := json.Marshal(status)
	assert.NoError(t, err)

	// Execute
	err = service.publishStatus(status)

	// Assert
	assert.NoError(t, err)
	mockMqttClient.AssertCalled(t, "Publish", "iot/status", byte(1), false, payload)
	mockMqttClient.AssertExpectations(t)
}

// TestStatusService_ReportsStoreState tests a full loop pass: the published
// report carries the device ID and the runtime state written by the other
// services.
func TestStatusService_ReportsStoreState(t *testing.T) {
	// Setup
	mockMqttClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)
	mockDeviceInfo := new(mocks.MockDeviceInfo)
	logger := zerolog.Nop()

	var mu sync.Mutex
	var captured []byte
	mockToken.On("Wait").Return(true)
	mockToken.On("Error").Return(nil)
	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")
	mockMqttClient.On("Publish", "iot/status", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			mu.Lock()
			captured = args.Get(3).([]byte)
			mu.Unlock()
		}).
		Return(mockToken)

	store := state.NewStore()
	store.SetLEDOn(true)
	store.SetConnection(models.ConnectionConnected)
	store.SetLastUpdateCheck(models.UpdateCheckResult{
		Status:  models.UpdateStatusUpToDate,
		CheckID: "check-1",
	})

	service := NewStatusService("iot/status", 50*time.Millisecond, time.Second, 1, nil,
		mockDeviceInfo, mockMqttClient, store, mocks.FixedClock{T: time.Now()}, logger)

	// Execute
	err := service.Start()
	assert.NoError(t, err)

	// Wait for at least one report to be published
	time.Sleep(150 * time.Millisecond)

	err = service.Stop()
	assert.NoError(t, err)

	// Assert
	mu.Lock()
	defer mu.Unlock()
	assert.NotNil(t, captured)

	var report models.DeviceStatus
	assert.NoError(t, json.Unmarshal(captured, &report))
	assert.Equal(t, "test-device-id", report.DeviceID)
	assert.True(t, report.LEDOn)
	assert.Equal(t, models.ConnectionConnected, report.Connection)
	if assert.NotNil(t, report.LastUpdateCheck) {
		assert.Equal(t, "check-1", report.LastUpdateCheck.CheckID)
	}
}

// TestStatusService_FieldFiltering tests that configured fields restrict
// which system probes run.
func TestStatusService_FieldFiltering(t *testing.T) {
	// Setup
	logger := zerolog.Nop()
	filtered := NewStatusService("iot/status", time.Second, time.Second, 1,
		[]string{"cpu"}, new(mocks.MockDeviceInfo), new(mocks.MockMQTTClient),
		state.NewStore(), mocks.FixedClock{T: time.Now()}, logger)
	unfiltered := NewStatusService("iot/status", time.Second, time.Second, 1,
		nil, new(mocks.MockDeviceInfo), new(mocks.MockMQTTClient),
		state.NewStore(), mocks.FixedClock{T: time.Now()}, logger)

	// Assert
	assert.True(t, filtered.fieldEnabled("cpu"))
	assert.False(t, filtered.fieldEnabled("memory"))
	assert.False(t, filtered.fieldEnabled("uptime"))
	assert.True(t, unfiltered.fieldEnabled("cpu"))
	assert.True(t, unfiltered.fieldEnabled("memory"))
	assert.True(t, unfiltered.fieldEnabled("uptime"))
}

// TestStatusService_StartStop tests the reporter lifecycle guards.
func TestStatusService_StartStop(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.MockDeviceInfo)
	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")
	logger := zerolog.Nop()

	service := NewStatusService("iot/status", time.Minute, time.Second, 1, nil,
		mockDeviceInfo, new(mocks.MockMQTTClient), state.NewStore(),
		mocks.FixedClock{T: time.Now()}, logger)

	// Execute
	err := service.Start()

	// Assert
	assert.NoError(t, err)

	// Try to start again (should fail)
	err = service.Start()
	assert.Error(t, err)
	assert.Equal(t, "status service is already running", err.Error())

	// Cleanup
	err = service.Stop()
	assert.NoError(t, err)

	// Try to stop again (should fail)
	err = service.Stop()
	assert.Error(t, err)
	assert.Equal(t, "status service is not running", err.Error())
}
