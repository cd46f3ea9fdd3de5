package utils

import (
	"time"

	"github.com/mfarlowe/picow-agent/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Wifi struct {
		Enabled         bool          `yaml:"enabled"`          // Manage Wi-Fi association (disable on wired hosts)
		Interface       string        `yaml:"interface"`        // Wireless interface name
		CredentialsFile string        `yaml:"credentials_file"` // Path to the network credentials file
		EncryptedPSK    bool          `yaml:"encrypted_psk"`    // Whether the stored PSK is AES-GCM encrypted
		CommandTimeout  time.Duration `yaml:"command_timeout"`  // Timeout for a single association command
		PollInterval    time.Duration `yaml:"poll_interval"`    // Delay between association polls
		MaxPolls        int           `yaml:"max_polls"`        // Association polls before giving up
		MonitorInterval time.Duration `yaml:"monitor_interval"` // Connectivity monitor period
	} `yaml:"wifi"`

	Control struct {
		Driver        string `yaml:"driver"`          // Output driver: memory, sysfs or serial_relay
		GPIONumber    int    `yaml:"gpio_number"`     // GPIO line for the sysfs driver
		RelayPort     string `yaml:"relay_port"`      // Serial port for the relay driver
		RelayBaudRate int    `yaml:"relay_baud_rate"` // Baud rate for the relay driver
		RelayChannel  int    `yaml:"relay_channel"`   // Relay channel for the relay driver
	} `yaml:"control"`

	Web struct {
		Port int `yaml:"port"` // HTTP listen port for the control panel
	} `yaml:"web"`

	Log struct {
		Path    string `yaml:"path"`     // Event log file path
		MaxSize int64  `yaml:"max_size"` // Rotation threshold in bytes
	} `yaml:"log"`

	TimeSync struct {
		Enabled  bool          `yaml:"enabled"`  // Enable/disable NTP synchronization
		Server   string        `yaml:"server"`   // NTP server host
		Interval time.Duration `yaml:"interval"` // Re-sync period, zero for startup-only
	} `yaml:"time_sync"`

	Services struct {
		Update struct {
			Source         string        `yaml:"source"`          // Image source: http or s3
			Repo           string        `yaml:"repo"`            // owner/name of the hosted repository
			Branch         string        `yaml:"branch"`          // Branch holding the image
			Script         string        `yaml:"script"`          // Path of the image file within the repo
			ObjectLocation string        `yaml:"object_location"` // bucket/key for the s3 source
			ImagePath      string        `yaml:"image_path"`      // Installed image path on disk
			FetchTimeout   time.Duration `yaml:"fetch_timeout"`   // Budget for one candidate fetch
			CheckOnStart   bool          `yaml:"check_on_start"`  // Run one check during startup
		} `yaml:"update_service"`

		Status struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for status reports
			Enabled  bool          `yaml:"enabled"`  // Enable/disable status reporting
			Interval time.Duration `yaml:"interval"` // Interval between status reports
			QOS      int           `yaml:"qos"`      // MQTT QoS level for status messages
			Timeout  time.Duration `yaml:"timeout"`  // Budget for one metrics collection pass
			Fields   []string      `yaml:"fields"`   // System fields to report (cpu, memory, uptime); empty means all
		} `yaml:"status"`

		Discovery struct {
			Enabled      bool   `yaml:"enabled"`       // Announce the panel over mDNS
			ServiceType  string `yaml:"service_type"`  // mDNS service type
			InstanceName string `yaml:"instance_name"` // Defaults to the device name
		} `yaml:"discovery"`
	} `yaml:"services"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Security struct {
		AESKeyFile string `yaml:"aes_key_file"` // Path to the AES key file
	} `yaml:"security"`

	S3 struct {
		Endpoint  string `yaml:"endpoint"`   // Object store endpoint
		AccessKey string `yaml:"access_key"` // Object store access key ID
		SecretKey string `yaml:"secret_key"` // Object store secret key
		UseSSL    bool   `yaml:"use_ssl"`    // Use TLS for object store access
	} `yaml:"s3"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	// Use the ReadYamlFile method from fileClient
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
