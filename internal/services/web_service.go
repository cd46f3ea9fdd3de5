package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfarlowe/picow-agent/internal/models"
	"github.com/mfarlowe/picow-agent/internal/state"
	"github.com/mfarlowe/picow-agent/pkg/eventlog"
	"github.com/mfarlowe/picow-agent/pkg/file"
	"github.com/mfarlowe/picow-agent/pkg/gpio"
)

// internalErrorBody is the only body ever sent with a 500; details stay in
// the logs.
const internalErrorBody = "An error occurred."

// WebService serves the control panel: LED control, the event log, and the
// manual update trigger. Unknown paths fall back to the panel page.
type WebService struct {
	port int

	pin        gpio.Pin
	update     *UpdateService
	fileClient file.FileOperations
	eventLog   *eventlog.Logger
	blinker    *gpio.Blinker
	store      *state.Store
	logger     zerolog.Logger

	server *http.Server
	wg     sync.WaitGroup
}

// NewWebService initializes a new WebService with the given parameters.
func NewWebService(port int, pin gpio.Pin, update *UpdateService, fileClient file.FileOperations,
	eventLog *eventlog.Logger, blinker *gpio.Blinker, store *state.Store, logger zerolog.Logger) *WebService {

	return &WebService{
		port:       port,
		pin:        pin,
		update:     update,
		fileClient: fileClient,
		eventLog:   eventLog,
		blinker:    blinker,
		store:      store,
		logger:     logger,
	}
}

// Start binds the listen port and begins serving requests.
func (s *WebService) Start() error {
	if s.server != nil {
		return errors.New("web service is already running")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // a manual update check may block the response for the whole fetch
	}

	// Bind synchronously so a port conflict fails startup instead of a
	// background goroutine.
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind web server port %d: %v", s.port, err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Web server terminated unexpectedly")
		}
	}()

	s.eventLog.Log("Web server started")
	s.logger.Info().Int("port", s.port).Msg("Web server started")
	go s.blinker.Flash(2, time.Second)

	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *WebService) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.wg.Wait()
	s.server = nil

	s.logger.Info().Msg("WebService stopped successfully")
	return nil
}

// handleRequest dispatches on the request path. Anything unrecognized,
// including non-GET methods, degrades to the panel page rather than an
// error.
func (s *WebService) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.servePanel(w)
		return
	}

	switch r.URL.Path {
	case "/led/on":
		s.handleLED(w, true)
	case "/led/off":
		s.handleLED(w, false)
	case "/log":
		s.handleLog(w)
	case "/update", "/ota-update":
		s.handleUpdate(w, r)
	default:
		s.servePanel(w)
	}
}

// handleLED switches the control output and records the change.
func (s *WebService) handleLED(w http.ResponseWriter, on bool) {
	var err error
	if on {
		err = s.pin.On()
	} else {
		err = s.pin.Off()
	}
	if err != nil {
		s.logger.Error().Err(err).Bool("on", on).Msg("Failed to switch control output")
		http.Error(w, internalErrorBody, http.StatusInternalServerError)
		return
	}

	s.store.SetLEDOn(on)
	if on {
		s.eventLog.Log("LED turned ON")
	} else {
		s.eventLog.Log("LED turned OFF")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if on {
		fmt.Fprint(w, "<h1>LED ON</h1>")
	} else {
		fmt.Fprint(w, "<h1>LED OFF</h1>")
	}
}

// handleLog serves the active event log verbatim.
func (s *WebService) handleLog(w http.ResponseWriter) {
	content, err := s.fileClient.ReadFile(s.eventLog.Path())
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Log file not found.", http.StatusNotFound)
			return
		}
		s.eventLog.Log(fmt.Sprintf("Error serving log: %v", err))
		http.Error(w, internalErrorBody, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, content)
}

// handleUpdate runs a synchronous update check and reports its outcome. A
// successful apply answers just before the restart tears the process down.
func (s *WebService) handleUpdate(w http.ResponseWriter, r *http.Request) {
	result, err := s.update.CheckNow(r.Context())
	if err != nil && errors.Is(err, models.ErrStorage) {
		http.Error(w, internalErrorBody, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, result.Text())
}

func (s *WebService) servePanel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, panelHTML)
}
