package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes data as a JSON response. Marshaling happens before the
// header is written so an encoding fault still produces a clean 500 instead
// of a truncated body.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail is an RFC 7807 problem response. Extra fields (for example
// the quota figures on a 413) are flattened into the top-level object.
type ProblemDetail struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Extra    map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra into the problem object itself, as RFC 7807
// extension members.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

// RespondError writes an RFC 7807 problem response for the status code.
func RespondError(w http.ResponseWriter, status int, detail string) {
	respondProblem(w, status, detail, nil)
}

// RespondErrorWithExtras writes an RFC 7807 problem response carrying
// extension members, used by the quota-exceeded mapping to report the limit,
// usage and requested bytes alongside the 413.
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	respondProblem(w, status, detail, extras)
}

func respondProblem(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	problem := ProblemDetail{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Extra:  extras,
	}

	payload, err := json.Marshal(problem)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	w.Write(payload)
}

// problemType maps the status codes this API emits to their RFC 9110
// definitions; anything else falls back to about:blank per RFC 7807.
func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://www.rfc-editor.org/rfc/rfc9110#section-15.5.1"
	case http.StatusUnauthorized:
		return "https://www.rfc-editor.org/rfc/rfc9110#section-15.5.2"
	case http.StatusForbidden:
		return "https://www.rfc-editor.org/rfc/rfc9110#section-15.5.4"
	case http.StatusNotFound:
		return "https://www.rfc-editor.org/rfc/rfc9110#section-15.5.5"
	case http.StatusConflict:
		return "https://www.rfc-editor.org/rfc/rfc9110#section-15.5.10"
	case http.StatusRequestEntityTooLarge:
		return "https://www.rfc-editor.org/rfc/rfc9110#section-15.5.14"
	case http.StatusInternalServerError:
		return "https://www.rfc-editor.org/rfc/rfc9110#section-15.6.1"
	default:
		return "about:blank"
	}
}
