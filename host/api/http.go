package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"espgpio/core"
	"espgpio/host/profiles"
	"espgpio/protocol"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respond encodes the data and ResponseError to JSON and responds with it and
// the http code. If the encoding fails, sets an InternalServerError.
func respond(w http.ResponseWriter, data interface{}, httpCode int) {
	var resp interface{}
	if v, ok := data.(error); ok {
		resp = errorResponse{Error: v.Error()}
	} else {
		resp = data
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)

	if resp != nil {
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// statusOf maps controller, transport and store errors onto HTTP codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidArg):
		return http.StatusBadRequest
	case errors.Is(err, profiles.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, protocol.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail logs a failed request and answers with its error
func (s *Server) fail(w http.ResponseWriter, req *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.Logger.WithError(err).WithField("path", req.URL.Path).Warn("request failed")
	}
	respond(w, err, code)
}
