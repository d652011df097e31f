// Package handlers implements the JSON API and page endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/jsonsafe"
	"electrohub/backend/services/electrohub/internal/validate"
)

// maxJSONBody bounds decoded request bodies. Signal payloads are the largest.
const maxJSONBody = 8 << 20

type resultResponse struct {
	Result interface{} `json:"result"`
}

type warnedResponse struct {
	Result   interface{} `json:"result"`
	Warnings []string    `json:"warnings"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	body, err := jsonsafe.Marshal(payload)
	if err != nil {
		zap.L().Error("encode response failed", zap.Int("status", status), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeResult(w http.ResponseWriter, result interface{}) {
	writeJSON(w, http.StatusOK, resultResponse{Result: result})
}

func writeWarned(w http.ResponseWriter, result interface{}, warnings []string) {
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, warnedResponse{Result: result, Warnings: warnings})
}

// decodeJSON fills dst from the body. An empty body leaves dst untouched so
// that prefilled defaults apply.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		var verr *validate.Error
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// failure maps an operation error to a response. Input problems are 400,
// anything else is logged and reported as 500.
func failure(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	if errors.Is(err, validate.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error(op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validate.Errorf(key, "must be an integer")
	}
	return v, nil
}
