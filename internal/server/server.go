package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/audiolibrelab/voicecapture/internal/format"
	"github.com/audiolibrelab/voicecapture/internal/recording"
	"github.com/audiolibrelab/voicecapture/internal/service"
)

const (
	stopRequestTimeout = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// Server exposes the service over a JSON HTTP API
type Server struct {
	service service.Service
	port    string
	http    *http.Server
}

// StatusResponse represents the JSON response for status endpoint
type StatusResponse struct {
	Status    string          `json:"status"`
	Session   *recording.Info `json:"session,omitempty"`
	LastError string          `json:"last_error,omitempty"`
}

// CapabilitiesResponse describes what the host can record
type CapabilitiesResponse struct {
	CanRecord     bool          `json:"can_record"`
	HasPermission bool          `json:"has_permission"`
	Encoders      []EncoderInfo `json:"encoders"`
	Default       EncoderInfo   `json:"default"`
}

// EncoderInfo describes one supported encoder
type EncoderInfo struct {
	Encoder   string `json:"encoder"`
	Codec     string `json:"codec"`
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
}

// GenericResponse represents a generic API response
type GenericResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// New creates a new web server instance
func New(svc service.Service, port string) *Server {
	return &Server{
		service: svc,
		port:    port,
	}
}

// Handler returns the routes of the API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/pause", s.handlePause)
	mux.HandleFunc("/resume", s.handleResume)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/permission", s.handlePermission)
	mux.HandleFunc("/capabilities", s.handleCapabilities)
	return mux
}

// Run serves the API until ctx is cancelled or the listener fails.
// It returns only after the service has abandoned any live recording.
func (s *Server) Run(ctx context.Context) error {
	defer s.service.Shutdown()

	listener, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return err
	}
	s.http = &http.Server{Handler: s.Handler()}

	localIP := getLocalIP()

	slog.Info("Starting VoiceCapture Web Server",
		"port", s.port,
		"local_url", fmt.Sprintf("http://%s:%s", localIP, s.port),
		"localhost_url", fmt.Sprintf("http://localhost:%s", s.port))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := s.http.Shutdown(shutdownCtx)
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return shutdownErr
}

// handleStart starts a recording; any format field selects a parameterised start
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Failed to parse form", "operation", "start")
		return
	}

	encoder := r.FormValue("encoder")
	sampleRateValue := r.FormValue("sample_rate")
	bitRateValue := r.FormValue("bit_rate")

	slog.Debug("Start request received", "encoder", encoder, "sample_rate", sampleRateValue, "bit_rate", bitRateValue)

	var err error
	if encoder == "" && sampleRateValue == "" && bitRateValue == "" {
		err = s.service.Start()
	} else {
		params := service.FormatParams{Encoder: encoder}
		if sampleRateValue != "" {
			params.SampleRate, err = strconv.ParseFloat(sampleRateValue, 64)
			if err != nil || !format.ValidSampleRate(params.SampleRate) {
				s.sendErrorResponse(w, http.StatusBadRequest, "Invalid sample_rate", "sample_rate", sampleRateValue)
				return
			}
		}
		if bitRateValue != "" {
			params.BitRate, err = strconv.Atoi(bitRateValue)
			if err != nil || params.BitRate <= 0 {
				s.sendErrorResponse(w, http.StatusBadRequest, "Invalid bit_rate", "bit_rate", bitRateValue)
				return
			}
		}
		err = s.service.StartWithFormat(params)
	}

	if err != nil {
		s.sendCallError(w, err, "start")
		return
	}

	s.sendJSON(w, http.StatusOK, GenericResponse{Success: true, Message: "Recording started"})
}

// handleStop stops the recording and returns the artifact
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), stopRequestTimeout)
	defer cancel()

	artifact, err := s.service.Stop(ctx)
	if err != nil {
		s.sendCallError(w, err, "stop")
		return
	}

	s.sendJSON(w, http.StatusOK, artifact)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	s.sendToggle(w, "pause", s.service.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	s.sendToggle(w, "resume", s.service.Resume)
}

func (s *Server) sendToggle(w http.ResponseWriter, operation string, toggle func() (bool, error)) {
	value, err := toggle()
	if err != nil {
		s.sendCallError(w, err, operation)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"value":   value,
	})
}

// handleStatus returns the current recording status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	response := StatusResponse{
		Status:    string(s.service.GetCurrentStatus()),
		LastError: s.service.GetLastError(),
	}
	if info, ok := s.service.GetSessionInfo(); ok {
		response.Status = string(info.State)
		response.Session = &info
	}

	s.sendJSON(w, http.StatusOK, response)
}

func (s *Server) handlePermission(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"value":   s.service.HasPermission(),
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	response := CapabilitiesResponse{
		CanRecord:     s.service.CanDeviceRecord(),
		HasPermission: s.service.HasPermission(),
		Default:       encoderInfo(format.Default()),
	}
	for _, enc := range format.Encoders() {
		spec, err := format.Resolve(string(enc), format.DefaultSampleRate, format.DefaultBitRate)
		if err != nil {
			continue
		}
		response.Encoders = append(response.Encoders, encoderInfo(spec))
	}

	s.sendJSON(w, http.StatusOK, response)
}

func encoderInfo(spec format.Spec) EncoderInfo {
	return EncoderInfo{
		Encoder:   string(spec.Encoder),
		Codec:     string(spec.Codec),
		Extension: spec.Extension,
		MimeType:  spec.MimeType(),
	}
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	s.sendJSON(w, http.StatusMethodNotAllowed, GenericResponse{Success: false, Error: "Method not allowed"})
	return false
}

// sendCallError maps a service result code onto an HTTP status
func (s *Server) sendCallError(w http.ResponseWriter, err error, operation string) {
	code := service.CodeOf(err)
	s.sendErrorResponse(w, statusForCode(code), string(code), "operation", operation, "error", err)
}

func statusForCode(code service.ResultCode) int {
	switch code {
	case service.CodeAlreadyRecording, service.CodeRecordingNotStarted, service.CodeMicrophoneBeingUsed:
		return http.StatusConflict
	case service.CodeUnsupportedFormat:
		return http.StatusBadRequest
	case service.CodeMissingPermission:
		return http.StatusForbidden
	case service.CodeEmptyRecording:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

// sendErrorResponse logs the error with context and sends a JSON error response
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string, logContext ...interface{}) {
	logFields := []interface{}{"error_message", errorMsg, "status_code", statusCode}
	if len(logContext) > 0 {
		logFields = append(logFields, logContext...)
	}
	slog.Error("Sending error response to client", logFields...)

	s.sendJSON(w, statusCode, GenericResponse{Success: false, Error: errorMsg})
}

func getLocalIP() string {
	// Try to connect to a remote address to determine local IP
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
