package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Result codes carried in the API envelope. They mirror HTTP status codes,
// plus 498 for an unknown or retired token.
const (
	CodeOK           = 0
	CodeBadRequest   = http.StatusBadRequest
	CodeUnauthorized = http.StatusUnauthorized
	CodeInvalidToken = 498
	CodeInternal     = http.StatusInternalServerError
)

// Descriptions paired with the result codes.
const (
	DescBadRequest   = "Bad request"
	DescUnauthorized = "Access denied"
	DescInvalidToken = "Invalid token"
	DescInternal     = "Internal server error"
)

// APIError is the error half of the envelope. Code 0 means success.
type APIError struct {
	Code int    `json:"code"`
	Desc string `json:"desc"`
}

// APIResult is the envelope every JSON API response is wrapped in.
type APIResult struct {
	Error  APIError `json:"error"`
	Result any      `json:"result"`
}

// Credential is the lookup result for a live token.
type Credential struct {
	UID string `json:"uid"`
	DN  string `json:"dn"`
}

// SystemInfo is served by /api/system/info.
type SystemInfo struct {
	ServerTime int64  `json:"server_time"`
	GitRev     string `json:"git_rev"`
	Version    string `json:"version"`
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// WriteSuccess wraps result in a success envelope.
func WriteSuccess(w http.ResponseWriter, result any) {
	WriteJSON(w, http.StatusOK, APIResult{Result: result})
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Status int // HTTP status; defaults to 200 as envelope errors are in-band
	Code   int
	Desc   string
}

// WriteError writes an error envelope with an empty result.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	WriteJSON(w, status, APIResult{Error: APIError{Code: p.Code, Desc: p.Desc}, Result: ""})
}
