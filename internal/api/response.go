package api

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"smallocator/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("api: failed to encode response body")
	}
}

// errorBody is the §6 error shape, with have/need added for
// InsufficientBalance so the client can render both sides without parsing
// the message string.
type errorBody struct {
	Error string `json:"error"`
	Have  string `json:"have,omitempty"`
	Need  string `json:"need,omitempty"`
}

// writeError translates err into the §7 status table and the §6 error
// body shape. Infrastructure failures (IndexerUnavailable,
// PersistenceFailure, SigningFailure) are logged with their underlying
// cause but surfaced to the client with a generic message, per §7:
// "infrastructure errors are logged ... and surfaced as generic 500 with a
// safe message".
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*apperr.Error)
	if !ok {
		log.WithError(err).Error("api: unclassified error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	status := appErr.Status()
	if status == http.StatusInternalServerError {
		log.WithError(appErr).Error("api: infrastructure failure")
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: appErr.Error(), Have: appErr.Have, Need: appErr.Need})
}
