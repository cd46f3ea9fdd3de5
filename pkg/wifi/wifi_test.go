package wifi

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/pkg/encryption"
	"github.com/mfarlowe/picow-agent/pkg/file"
)

func writeCredentialsFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "wifi.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCredentialsPlaintext(t *testing.T) {
	path := writeCredentialsFile(t, `{"ssid": "home-net", "psk": "hunter2"}`)

	creds, err := LoadCredentials(path, file.NewFileService(), nil)

	assert.NoError(t, err)
	assert.Equal(t, "home-net", creds.SSID)
	assert.Equal(t, "hunter2", creds.PSK)
}

func TestLoadCredentialsRequiresSSID(t *testing.T) {
	path := writeCredentialsFile(t, `{"psk": "hunter2"}`)

	_, err := LoadCredentials(path, file.NewFileService(), nil)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStorage))
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.json"), file.NewFileService(), nil)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStorage))
}

func TestLoadCredentialsDecryptsPSK(t *testing.T) {
	fileClient := file.NewFileService()

	// A real key on disk, the way the agent is deployed
	keyPath := filepath.Join(t.TempDir(), "aes.key")
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(keyPath, key, 0600))

	manager := encryption.NewEncryptionManager(fileClient)
	require.NoError(t, manager.Initialize(keyPath))

	sealed, err := manager.Encrypt([]byte("hunter2"))
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(sealed)

	path := writeCredentialsFile(t, `{"ssid": "home-net", "psk": "`+encoded+`"}`)

	creds, err := LoadCredentials(path, fileClient, manager)

	assert.NoError(t, err)
	assert.Equal(t, "home-net", creds.SSID)
	assert.Equal(t, "hunter2", creds.PSK)
}

func TestLoadCredentialsRejectsBadCiphertext(t *testing.T) {
	fileClient := file.NewFileService()

	keyPath := filepath.Join(t.TempDir(), "aes.key")
	key := make([]byte, 32)
	require.NoError(t, os.WriteFile(keyPath, key, 0600))

	manager := encryption.NewEncryptionManager(fileClient)
	require.NoError(t, manager.Initialize(keyPath))

	path := writeCredentialsFile(t, `{"ssid": "home-net", "psk": "not-base64!!"}`)

	_, err := LoadCredentials(path, fileClient, manager)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrStorage))
}
