// Package response writes the JSON envelopes every endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/logging"

	"github.com/sirupsen/logrus"
)

type successBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
}

// Responder renders envelopes. Dev adds stack traces to error bodies.
type Responder struct {
	Dev bool
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

func (rs *Responder) Success(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successBody{StatusCode: status, Message: message, Data: data})
}

// Error translates err into its status and message. Errors that are not
// *apperrors.ApiError become a generic 500 and are logged with their stack.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(status)
	if apiErr, ok := apperrors.As(err); ok {
		status = apiErr.StatusCode
		message = apiErr.Message
	}

	entry := logging.Logger.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		entry.Errorf("Event ID: REQUEST_FAILED, Description: %s", apperrors.Stack(err))
	} else {
		entry.Warnf("Event ID: REQUEST_REJECTED, Description: %v", err)
	}

	body := errorBody{StatusCode: status, Message: message}
	if rs.Dev {
		body.Stack = apperrors.Stack(err)
	}
	writeJSON(w, status, body)
}
