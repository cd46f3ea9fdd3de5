package wifi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	psnet "github.com/shirou/gopsutil/net"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/pkg/encryption"
	"github.com/mfarlowe/picow-agent/pkg/file"
)

// defaultCommandTimeout bounds a single nmcli invocation.
const defaultCommandTimeout = 30 * time.Second

// Credentials identifies the managed network. The pre-shared key can be
// stored base64-encoded AES-GCM ciphertext and is decrypted on load when an
// encryption manager is supplied.
type Credentials struct {
	SSID string `json:"ssid"`
	PSK  string `json:"psk"`
}

// LoadCredentials reads the credentials file at path, decrypting the PSK
// when encryptionSvc is non-nil.
func LoadCredentials(path string, fileClient file.FileOperations, encryptionSvc encryption.EncryptionManagerInterface) (Credentials, error) {
	var creds Credentials
	if err := fileClient.ReadJsonFile(path, &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: failed to read wifi credentials: %v", models.ErrStorage, err)
	}
	if creds.SSID == "" {
		return Credentials{}, fmt.Errorf("%w: wifi credentials missing ssid", models.ErrStorage)
	}

	if encryptionSvc != nil && creds.PSK != "" {
		raw, err := base64.StdEncoding.DecodeString(creds.PSK)
		if err != nil {
			return Credentials{}, fmt.Errorf("%w: wifi psk is not valid base64: %v", models.ErrStorage, err)
		}
		plain, err := encryptionSvc.Decrypt(raw)
		if err != nil {
			return Credentials{}, fmt.Errorf("%w: failed to decrypt wifi psk: %v", models.ErrStorage, err)
		}
		creds.PSK = string(plain)
	}

	return creds, nil
}

// Manager is the association primitive for the managed wireless interface.
// Associate starts one attempt; callers own the poll-until-connected budget.
type Manager interface {
	Associate(ctx context.Context) error
	IsConnected() (bool, error)
	IPAddress() (string, error)
}

// NmcliManager drives the platform Wi-Fi stack through nmcli and reports
// link state from the kernel's operstate file.
type NmcliManager struct {
	iface      string
	creds      Credentials
	cmdTimeout time.Duration
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewNmcliManager creates a Manager for iface using creds.
func NewNmcliManager(iface string, creds Credentials, cmdTimeout time.Duration, fileClient file.FileOperations, logger zerolog.Logger) *NmcliManager {
	if cmdTimeout <= 0 {
		cmdTimeout = defaultCommandTimeout
	}

	return &NmcliManager{
		iface:      iface,
		creds:      creds,
		cmdTimeout: cmdTimeout,
		fileClient: fileClient,
		logger:     logger,
	}
}

// Associate runs one association attempt against the configured network.
func (m *NmcliManager) Associate(ctx context.Context) error {
	m.logger.Debug().Str("ssid", m.creds.SSID).Str("iface", m.iface).Msg("Starting Wi-Fi association attempt")

	args := []string{"device", "wifi", "connect", m.creds.SSID}
	if m.creds.PSK != "" {
		args = append(args, "password", m.creds.PSK)
	}
	args = append(args, "ifname", m.iface)

	ctx, cancel := context.WithTimeout(ctx, m.cmdTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "nmcli", args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: association attempt timed out", models.ErrNetwork)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: association failed: %s", models.ErrNetwork, detail)
	}

	return nil
}

// IsConnected reports whether the managed interface link is up.
func (m *NmcliManager) IsConnected() (bool, error) {
	state, err := m.fileClient.ReadFile("/sys/class/net/" + m.iface + "/operstate")
	if err != nil {
		return false, fmt.Errorf("%w: failed to read %s operstate: %v", models.ErrNetwork, m.iface, err)
	}
	return strings.TrimSpace(state) == "up", nil
}

// IPAddress returns the first IPv4 address assigned to the managed interface.
func (m *NmcliManager) IPAddress() (string, error) {
	ifaces, err := psnet.Interfaces()
	if err != nil {
		return "", fmt.Errorf("%w: failed to list interfaces: %v", models.ErrNetwork, err)
	}

	for _, ifc := range ifaces {
		if ifc.Name != m.iface {
			continue
		}
		for _, addr := range ifc.Addrs {
			ip := addr.Addr
			// Addresses come back in CIDR form.
			if i := strings.IndexByte(ip, '/'); i >= 0 {
				ip = ip[:i]
			}
			if strings.Count(ip, ".") == 3 {
				return ip, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no IPv4 address on %s", models.ErrNetwork, m.iface)
}
