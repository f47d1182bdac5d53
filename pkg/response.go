package pkg

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

// error categories carried in the JSON error envelope
const (
	ErrTypeValidation   = "validation"
	ErrTypeUnauthorized = "unauthorized"
	ErrTypeConflict     = "conflict"
	ErrTypeNotFound     = "not_found"
	ErrTypeInternal     = "internal"
)

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if _, err := w.Write(message); err != nil {
		// TODO: add metrics and alarms instead... sometime in the future
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteResponseBytesOK(w http.ResponseWriter, contentType string, message []byte) {
	WriteResponseBytes(w, contentType, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

// WriteJSONError writes the uniform error envelope used by all handlers:
//
//	{"error": "<category>", "message": "<human readable>"}
func WriteJSONError(w http.ResponseWriter, errType, message string, statusCode int) {
	WriteResponse(
		w,
		ContentType.JSON,
		fmt.Sprintf(`{"error":%q,"message":%q}`, errType, message),
		statusCode,
	)
}
