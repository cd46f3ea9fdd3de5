package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/constants"
	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/pkg/clock"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/fetch"
	"github.com/mfarlowe/picow-agent/pkg/file"
	"github.com/mfarlowe/picow-agent/pkg/gpio"
)

// UpdateService decides whether the installed image must be replaced. It
// fetches the candidate, compares it against what is installed after
// normalizing both sides, and delegates to the ImageInstaller only when the
// two differ. It never mutates the installed image itself.
type UpdateService struct {
	source       fetch.Fetcher
	location     string
	imagePath    string
	fetchTimeout time.Duration

	fileClient file.FileOperations
	installer  *ImageInstaller
	blinker    *gpio.Blinker
	eventLog   *eventlog.Logger
	store      *state.Store
	clk        clock.Clock
	logger     zerolog.Logger

	state            constants.UpdateState
	validTransitions map[constants.UpdateState][]constants.UpdateState

	// mu serializes checks: a manual trigger racing the startup check runs
	// after it, never interleaved with it.
	mu sync.Mutex
}

// NewUpdateService creates and returns a new instance of UpdateService.
func NewUpdateService(source fetch.Fetcher, location string, imagePath string,
	fetchTimeout time.Duration, fileClient file.FileOperations, installer *ImageInstaller,
	blinker *gpio.Blinker, eventLog *eventlog.Logger, store *state.Store,
	clk clock.Clock, logger zerolog.Logger) *UpdateService {

	if fetchTimeout <= 0 {
		fetchTimeout = constants.DefaultFetchTimeout
	}

	return &UpdateService{
		source:       source,
		location:     location,
		imagePath:    imagePath,
		fetchTimeout: fetchTimeout,
		fileClient:   fileClient,
		installer:    installer,
		blinker:      blinker,
		eventLog:     eventLog,
		store:        store,
		clk:          clk,
		logger:       logger,
		state:        constants.UpdateStateIdle,
		validTransitions: map[constants.UpdateState][]constants.UpdateState{
			constants.UpdateStateIdle:       {constants.UpdateStateChecking},
			constants.UpdateStateChecking:   {constants.UpdateStateIdle, constants.UpdateStateInstalling, constants.UpdateStateFailure},
			constants.UpdateStateInstalling: {constants.UpdateStateRestarting, constants.UpdateStateFailure},
			constants.UpdateStateRestarting: {},
			constants.UpdateStateFailure:    {constants.UpdateStateIdle},
		},
	}
}

// State returns the engine's current lifecycle state.
func (u *UpdateService) State() constants.UpdateState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// CheckNow runs one full update check: fetch, compare, and install when the
// candidate differs. It blocks until the check completes and always records
// the outcome in the runtime state store and the event log.
//
// The returned error is non-nil only for internal failures (image read,
// write, verification or restart); fetch failures and non-200 statuses are
// ordinary results, reported in the UpdateCheckResult alone.
func (u *UpdateService) CheckNow(ctx context.Context) (models.UpdateCheckResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	checkID := uuid.New().String()
	logger := u.logger.With().Str("check_id", checkID).Logger()
	logger.Info().Str("location", u.location).Msg("Checking for updates")

	u.transition(constants.UpdateStateChecking, logger)

	result, err := u.runCheck(ctx, logger)
	result.CheckID = checkID
	result.CheckedAt = u.clk.Now()

	switch result.Status {
	case models.UpdateStatusApplied:
		u.transition(constants.UpdateStateRestarting, logger)
	case models.UpdateStatusUpToDate:
		u.transition(constants.UpdateStateIdle, logger)
	default:
		u.transition(constants.UpdateStateFailure, logger)
		u.transition(constants.UpdateStateIdle, logger)
	}

	u.store.SetLastUpdateCheck(result)
	return result, err
}

// runCheck performs the fetch-compare-install sequence. Caller holds mu.
func (u *UpdateService) runCheck(ctx context.Context, logger zerolog.Logger) (models.UpdateCheckResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, u.fetchTimeout)
	defer cancel()

	fetched, err := u.source.Fetch(fetchCtx, u.location)
	if err != nil {
		return u.failure(logger, fmt.Sprintf("Error during OTA update: %v", err)), nil
	}
	if !fetched.OK() {
		return u.failure(logger, fmt.Sprintf("Failed to fetch update: %d", fetched.StatusCode)), nil
	}

	candidate := NormalizeImage(fetched.Body)

	installed, exists, err := u.readInstalledImage()
	if err != nil {
		reason := fmt.Sprintf("Error during OTA update: %v", err)
		return u.failure(logger, reason), err
	}

	// A missing installed image counts as different by definition.
	if exists && bytes.Equal(candidate, installed) {
		u.eventLog.Log("Checked for updates: no updates available.")
		logger.Info().Msg("Installed image already matches remote")
		return models.UpdateCheckResult{Status: models.UpdateStatusUpToDate}, nil
	}

	u.transition(constants.UpdateStateInstalling, logger)
	logger.Info().Int("bytes", len(candidate)).Msg("Update available, applying")

	// Visible warning before the image is touched, so an observer can still
	// pull power and keep the old code.
	u.blinker.Pattern(gpio.UpdateNotice...)

	if err := u.installer.Install(candidate); err != nil {
		reason := fmt.Sprintf("Error during OTA update: %v", err)
		return u.failure(logger, reason), err
	}

	return models.UpdateCheckResult{Status: models.UpdateStatusApplied}, nil
}

// readInstalledImage loads and normalizes the installed image. The second
// return reports whether an installed image exists at all.
func (u *UpdateService) readInstalledImage() ([]byte, bool, error) {
	exists, err := u.fileClient.IsFileExists(u.imagePath)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to stat installed image: %v", models.ErrStorage, err)
	}
	if !exists {
		return nil, false, nil
	}

	content, err := u.fileClient.ReadFileRaw(u.imagePath)
	if err != nil {
		return nil, true, fmt.Errorf("%w: failed to read installed image: %v", models.ErrStorage, err)
	}
	return NormalizeImage(content), true, nil
}

// failure logs reason to the event log and returns an Unavailable result
// carrying it.
func (u *UpdateService) failure(logger zerolog.Logger, reason string) models.UpdateCheckResult {
	u.eventLog.Log(reason)
	logger.Warn().Str("reason", reason).Msg("Update check did not apply an update")
	return models.UpdateCheckResult{Status: models.UpdateStatusUnavailable, Reason: reason}
}

// transition moves the engine to the given state if the move is legal.
func (u *UpdateService) transition(to constants.UpdateState, logger zerolog.Logger) {
	if !u.isValidTransition(to) {
		logger.Warn().Str("from", string(u.state)).Str("to", string(to)).Msg("Invalid update state transition")
		return
	}
	u.state = to
}

// isValidTransition checks if the transition between states is valid
func (u *UpdateService) isValidTransition(to constants.UpdateState) bool {
	validStates, exists := u.validTransitions[u.state]
	if !exists {
		return false
	}
	for _, validState := range validStates {
		if to == validState {
			return true
		}
	}
	return false
}

// NormalizeImage canonicalizes image content for comparison and install:
// per-line trailing whitespace is stripped, line endings become "\n", and
// trailing blank lines are dropped. Two images that differ only in those
// respects are the same image.
func NormalizeImage(content []byte) []byte {
	lines := strings.Split(string(content), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return []byte(strings.Join(lines, "\n"))
}
