package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
)

var (
	errRateLimited   = errors.New("rate-limited: slow down")
	errInvalidBody   = errors.New("error: invalid request body")
	errInvalidNumber = errors.New("error: invalid number")
)

type errorResponse struct {
	Error string `json:"error"`
}

func response(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("marshal response error: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func responseError(w http.ResponseWriter, status int, err error) {
	response(w, status, &errorResponse{Error: err.Error()})
}

// responseFeedError maps controller errors onto http statuses
func responseFeedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownFeed):
		responseError(w, http.StatusNotFound, err)
	case errors.Is(err, models.ErrEmptySearch),
		errors.Is(err, models.ErrMalformedRecord),
		errors.Is(err, errInvalidBody),
		errors.Is(err, errInvalidNumber):
		responseError(w, http.StatusBadRequest, err)
	case models.IsConnectivity(err), errors.Is(err, models.ErrClosed):
		responseError(w, http.StatusServiceUnavailable, err)
	default:
		logger.Log.Errorf("feed request error: %s", err)
		responseError(w, http.StatusInternalServerError, err)
	}
}
