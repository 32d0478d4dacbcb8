package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tokenFaucet/internal/model"
	"tokenFaucet/internal/registry"
	"tokenFaucet/internal/storage"
)

var (
	errUnauthorized = errors.New("unauthorized")
	errRateLimited  = errors.New("too many requests, please try again later")
)

var badRequestErrors = []error{
	model.ErrInvalidWallet,
	model.ErrInvalidRequest,
	model.ErrInvalidConfiguration,
	model.ErrAlreadyClaimed,
	model.ErrNothingToDistribute,
	registry.ErrChainExists,
	registry.ErrTokenExists,
	storage.ErrDuplicateKey,
}

func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
