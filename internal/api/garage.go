package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/garage-remote/internal/garage"
	"github.com/nerrad567/garage-remote/internal/i18n"
)

// handleStatus returns the current status snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.garage.Snapshot())
}

// handleConnect starts a connection attempt with the posted parameters.
//
// The attempt runs asynchronously: 202 means the manager accepted the
// parameters and is connecting. Progress arrives over the WebSocket or by
// polling /status. Only parameter validation fails synchronously.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var params garage.ConnectionParams
	if !decodeJSON(w, r, &params) {
		return
	}

	if err := s.garage.Connect(params); err != nil {
		var vErr *garage.ValidationError
		if errors.As(err, &vErr) {
			writeValidationError(w, vErr.Message)
			return
		}
		s.logger.Error("connect failed", "error", err)
		writeInternalError(w, "connect failed")
		return
	}

	writeJSON(w, http.StatusAccepted, s.garage.Snapshot())
}

// handleDisconnect tears down the session and returns the reset snapshot.
func (s *Server) handleDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.garage.Disconnect()
	writeJSON(w, http.StatusOK, s.garage.Snapshot())
}

// handleOpenDoor publishes one open command.
// Publish failures are reported through the status snapshot.
func (s *Server) handleOpenDoor(w http.ResponseWriter, _ *http.Request) {
	if err := s.garage.OpenDoor(); err != nil {
		if errors.Is(err, garage.ErrNotConnected) {
			writeError(w, http.StatusConflict, ErrCodeNotConnected, err.Error())
			return
		}
		s.logger.Error("open door failed", "error", err)
		writeInternalError(w, "open door failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// localeResponse is the body of the locale endpoints.
type localeResponse struct {
	Locale    string          `json:"locale"`
	Languages []i18n.Language `json:"languages"`
}

// localeRequest is the body of PUT /locale.
type localeRequest struct {
	Locale string `json:"locale"`
}

// handleGetLocale returns the active language and the supported table.
func (s *Server) handleGetLocale(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, localeResponse{
		Locale:    s.locales.Current(),
		Languages: i18n.Languages(),
	})
}

// handleSetLocale switches and persists the active language.
func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	var req localeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.locales.OnLocaleChange(r.Context(), req.Locale); err != nil {
		if errors.Is(err, i18n.ErrUnsupported) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("locale change failed", "error", err)
		writeInternalError(w, "locale change failed")
		return
	}

	writeJSON(w, http.StatusOK, localeResponse{
		Locale:    s.locales.Current(),
		Languages: i18n.Languages(),
	})
}
