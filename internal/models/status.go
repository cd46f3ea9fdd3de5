package models

import "time"

// DeviceStatus is the periodic status payload published by the status
// reporter. Optional fields are pointers so disabled probes are omitted
// from the JSON rather than reported as zero.
type DeviceStatus struct {
	DeviceID        string             `json:"device_id"`
	Timestamp       time.Time          `json:"timestamp"`
	LEDOn           bool               `json:"led_on"`
	Connection      ConnectionState    `json:"connection"`
	LastUpdateCheck *UpdateCheckResult `json:"last_update_check,omitempty"`
	LastTimeSync    *time.Time         `json:"last_time_sync,omitempty"`
	CPUUsage        *float64           `json:"cpu_usage,omitempty"`
	Memory          *float64           `json:"memory,omitempty"`
	UptimeSeconds   *uint64            `json:"uptime_seconds,omitempty"`
}
