package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/contentpulse/internal/contracts"
	"github.com/wonny/contentpulse/pkg/logger"
)

// Notifier receives batch results for the live job feed
type Notifier interface {
	Notify(kind string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondErr maps the engine error taxonomy onto HTTP status codes
func respondErr(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case contracts.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case contracts.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, contracts.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	default:
		log.WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return contracts.NewValidationError("body", "invalid JSON: %v", err)
	}
	return nil
}

// queryInt reads an integer query parameter; missing means def
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, contracts.NewValidationError(key, "must be an integer")
	}
	return v, nil
}

// queryFloat reads a float query parameter; missing means def
func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, contracts.NewValidationError(key, "must be a number")
	}
	return v, nil
}

// queryBool reads a boolean query parameter; missing means def
func queryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, contracts.NewValidationError(key, "must be true or false")
	}
	return v, nil
}
