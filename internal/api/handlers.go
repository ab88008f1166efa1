package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"places-workers/internal/common/auth"
	apperrors "places-workers/internal/common/errors"
	"places-workers/internal/common/validation"
	"places-workers/internal/export"
	"places-workers/internal/models"
)

// Client-facing messages. Upstream detail is logged, never returned.
const (
	msgCityRequired      = "City is required"
	msgToursFailed       = "Failed to fetch tourist attractions"
	msgDataRequired      = "Data is required"
	msgExportFailed      = "Failed to generate Excel file"
	msgRegionRequired    = "Region is required"
	msgPlacesFailed      = "Failed to fetch data from Google Places API"
	msgInternal          = "Internal server error"
	msgRestaurantsListed = "Failed to fetch restaurants"
	msgRestaurantsSaved  = "Restaurants updated successfully"
	msgInviteRequired    = "Email and link are required"
	msgInviteFailed      = "Failed to send invite"
	msgInviteSent        = "Invite sent successfully"
)

var errBodyTooLarge = errors.New("request body too large")

// readValidated reads the body and checks it against the named schema. It
// returns ok=false when the body is unreadable, too large or invalid.
func (s *Server) readValidated(w http.ResponseWriter, r *http.Request, schema string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = errBodyTooLarge
		}
		s.logger.Warn("request body rejected", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err,
		})
		return nil, false
	}

	result, err := s.validator.ValidateJSON(schema, body)
	if err != nil {
		s.logger.Error("schema validation error", map[string]interface{}{
			"schema": schema,
			"error":  err,
		})
		return nil, false
	}
	if !result.Valid {
		s.logger.Debug("request failed validation", map[string]interface{}{
			"schema": schema,
			"errors": result.GetErrorMessages(),
		})
		return nil, false
	}
	return body, true
}

type toursRequest struct {
	City     string `json:"city"`
	Keywords string `json:"keywords"`
}

func (s *Server) handleTours(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readValidated(w, r, validation.ToursRequest)
	if !ok {
		writeError(w, http.StatusBadRequest, msgCityRequired)
		return
	}
	var req toursRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgCityRequired)
		return
	}

	result, err := s.deps.Tours.Aggregate(r.Context(), req.City, req.Keywords)
	if err != nil {
		if stdErr, ok := apperrors.AsStandardError(err); ok && stdErr.Code == apperrors.ErrCodeInvalidInput {
			writeError(w, http.StatusBadRequest, msgCityRequired)
			return
		}
		s.logger.Error("tour aggregation failed", map[string]interface{}{
			"city":     req.City,
			"keywords": req.Keywords,
			"error":    err,
		})
		writeError(w, http.StatusInternalServerError, msgToursFailed)
		return
	}

	if len(result.Warnings) > 0 {
		w.Header().Set("X-Warning-Count", strconv.Itoa(len(result.Warnings)))
	}
	records := result.Records
	if records == nil {
		records = []models.TourRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readValidated(w, r, validation.ExportRequest)
	if !ok {
		writeError(w, http.StatusBadRequest, msgDataRequired)
		return
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		writeError(w, http.StatusBadRequest, msgDataRequired)
		return
	}

	data, err := export.Export(rows, export.TourSchema)
	if err != nil {
		s.logger.Error("spreadsheet export failed", map[string]interface{}{
			"rows":  len(rows),
			"error": apperrors.NewExportFailedError(err),
		})
		writeError(w, http.StatusInternalServerError, msgExportFailed)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type restaurantsRequest struct {
	Region string `json:"region"`
}

type refreshResponse struct {
	Message  string           `json:"message"`
	Found    int              `json:"found"`
	Upserted int              `json:"upserted"`
	Warnings []models.Warning `json:"warnings,omitempty"`
}

func (s *Server) handleRefreshRestaurants(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readValidated(w, r, validation.RestaurantsRequest)
	if !ok {
		writeError(w, http.StatusBadRequest, msgRegionRequired)
		return
	}
	var req restaurantsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgRegionRequired)
		return
	}

	report, err := s.deps.Restaurants.Refresh(r.Context(), req.Region)
	if err != nil {
		s.logger.Error("restaurant refresh failed", map[string]interface{}{
			"region": req.Region,
			"error":  err,
		})
		stdErr := apperrors.Normalize(err)
		switch stdErr.Code {
		case apperrors.ErrCodeInvalidInput:
			writeError(w, http.StatusBadRequest, msgRegionRequired)
		case apperrors.ErrCodePlacesSearchFailed:
			writeError(w, http.StatusInternalServerError, msgPlacesFailed)
		default:
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Message:  msgRestaurantsSaved,
		Found:    report.Found,
		Upserted: report.Upserted,
		Warnings: report.Warnings,
	})
}

func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Restaurants.List(r.Context())
	if err != nil {
		s.logger.Error("restaurant list failed", map[string]interface{}{"error": err})
		writeError(w, http.StatusInternalServerError, msgRestaurantsListed)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSendInvite(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readValidated(w, r, validation.InviteRequest)
	if !ok {
		writeError(w, http.StatusBadRequest, msgInviteRequired)
		return
	}
	var req models.Invite
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInviteRequired)
		return
	}

	if s.deps.Invites == nil {
		s.logger.Error("invite requested while delivery is disabled", map[string]interface{}{
			"email": req.Email,
		})
		writeError(w, http.StatusInternalServerError, msgInviteFailed)
		return
	}

	if _, err := s.deps.Invites.Send(r.Context(), req); err != nil {
		if stdErr, ok := apperrors.AsStandardError(err); ok && stdErr.Code == apperrors.ErrCodeInvalidInput {
			writeError(w, http.StatusBadRequest, msgInviteRequired)
			return
		}
		s.logger.Error("invite failed", map[string]interface{}{
			"email": req.Email,
			"error": err,
		})
		writeError(w, http.StatusInternalServerError, msgInviteFailed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msgInviteSent})
}

func (s *Server) handleDashboardLink(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.Links(s.opts.HashSecret))
}
