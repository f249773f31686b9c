package bookingapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// statusMessages are the customer-facing messages for well-known statuses.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "Richiesta non valida",
	http.StatusUnauthorized:        "Sessione scaduta o non autorizzato",
	http.StatusForbidden:           "Accesso negato",
	http.StatusNotFound:            "Risorsa non trovata",
	http.StatusInternalServerError: "Errore interno del server",
}

// Error is a failed call to the booking API. Status is zero when no response
// was received.
type Error struct {
	Status  int
	Message string
	Method  string
	URL     string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: http %d", e.Method, e.URL, e.Status)
	}
}

// StatusCode is the HTTP status of the response, or zero.
func (e *Error) StatusCode() int { return e.Status }

// UserMessage is the message to show the customer, possibly empty.
func (e *Error) UserMessage() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func transportError(req *http.Request, err error) *Error {
	return &Error{Method: req.Method, URL: req.URL.String(), Err: err}
}

// responseError builds the error of a non-2xx response. The body's message or
// error field wins over the status table.
func responseError(req *http.Request, status int, body []byte) *Error {
	e := &Error{Status: status, Method: req.Method, URL: req.URL.String()}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		e.Message = strings.TrimSpace(payload.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(payload.Error)
		}
	}
	if e.Message == "" {
		e.Message = statusMessages[status]
	}
	return e
}
