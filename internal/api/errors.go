package api

import "fmt"

// APIError is the decoded form of the server's JSON error envelope: the
// machine code string ("expired", "forbidden", ...), the numeric error_code
// from the server's taxonomy, and the human-readable message. CLI error
// guidance dispatches on Code; ErrorCode pins the exact rejection for bug
// reports.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Message
	if msg == "" && e.Status > 0 {
		msg = fmt.Sprintf("server returned status %d", e.Status)
	}
	if msg == "" {
		msg = "api error"
	}

	switch {
	case e.Code != "" && e.ErrorCode > 0:
		return fmt.Sprintf("%s: %s (code %d)", e.Code, msg, e.ErrorCode)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Code, msg)
	default:
		return msg
	}
}
