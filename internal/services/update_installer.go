package services

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/pkg/board"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/file"
)

// ImageInstaller persists a new image and triggers the controlled restart
// into it. The write goes through a temp-file-plus-rename and is verified
// by hash before the restart is issued, so a crash mid-install leaves the
// old image untouched and a corrupted write never reboots the device.
type ImageInstaller struct {
	imagePath  string
	fileClient file.FileOperations
	eventLog   *eventlog.Logger
	resetter   board.Resetter
	logger     zerolog.Logger
}

// NewImageInstaller creates an ImageInstaller writing to imagePath.
func NewImageInstaller(imagePath string, fileClient file.FileOperations,
	eventLog *eventlog.Logger, resetter board.Resetter, logger zerolog.Logger) *ImageInstaller {

	return &ImageInstaller{
		imagePath:  imagePath,
		fileClient: fileClient,
		eventLog:   eventLog,
		resetter:   resetter,
		logger:     logger,
	}
}

// Install writes content as the installed image, verifies it landed intact
// and restarts the device. The applied event is logged before the restart
// is issued; the restart failing is the only error a successful write can
// still return.
func (i *ImageInstaller) Install(content []byte) error {
	if err := i.fileClient.WriteFileAtomic(i.imagePath, content, 0644); err != nil {
		return fmt.Errorf("%w: failed to write image: %v", models.ErrStorage, err)
	}

	expected := fmt.Sprintf("%x", sha256.Sum256(content))
	written, err := i.fileClient.GetFileHash(i.imagePath)
	if err != nil {
		return fmt.Errorf("%w: failed to hash installed image: %v", models.ErrStorage, err)
	}
	if written != expected {
		return fmt.Errorf("%w: installed image hash mismatch", models.ErrStorage)
	}

	i.eventLog.Log("OTA update applied. Restarting...")
	i.logger.Info().Str("path", i.imagePath).Str("sha256", written).Msg("New image installed, restarting device")

	if err := i.resetter.Reset(); err != nil {
		return fmt.Errorf("failed to restart device: %v", err)
	}
	return nil
}
