package akismet

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// sentinel errors, use errors.Is to check the category of returned error
var (
	ErrInvalidParams = errors.New("invalid request parameters")
	ErrTransport     = errors.New("transport failure")
	ErrAPI           = errors.New("api failure")
)

// response headers with error details
const (
	headerAlertCode = "X-akismet-alert-code"
	headerAlertMsg  = "X-akismet-alert-msg"
	headerDebugHelp = "X-akismet-debug-help"
)

const unknownAPIError = "An unknown error occurred"

// ValidationError is returned for unknown parameter names, malformed values and missing required parameters.
type ValidationError struct {
	Field   string // parameter name, may be empty
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is allows errors.Is(err, ErrInvalidParams)
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidParams }

// HTTPError is returned when the request can't be sent or the response can't be read.
// Request is the original request, its body can be re-read with Request.GetBody.
// The api key is part of the request host, so Error reports only the path and masks the key in the cause.
type HTTPError struct {
	Request *http.Request
	Err     error
	apiKey  string // masked in the message
}

func (e *HTTPError) Error() string {
	target := ""
	if e.Request != nil && e.Request.URL != nil {
		target = e.Request.URL.Path
	}
	cause := "<nil>"
	if e.Err != nil {
		cause = maskKey(e.Err.Error(), e.apiKey)
	}
	return fmt.Sprintf("request to %s failed: %s", target, cause)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrTransport)
func (e *HTTPError) Is(target error) bool { return target == ErrTransport }

// APIError is returned when the API responded, but the response doesn't follow the documented contract,
// for example on authentication failure or missing parameters.
type APIError struct {
	Request  *http.Request
	Response *http.Response
	Body     string // response body, already consumed from Response
	Code     int    // alert code from response headers, 0 if not set
	Message  string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("akismet api error %d: %s", e.Code, e.Message)
	}
	return "akismet api error: " + e.Message
}

// Is allows errors.Is(err, ErrAPI)
func (e *APIError) Is(target error) bool { return target == ErrAPI }

// maskKey replaces all occurrences of the api key in s
func maskKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "*****")
}

// newAPIError makes APIError with message and code taken from the akismet response headers
func newAPIError(req *http.Request, resp *http.Response, body string) *APIError {
	res := &APIError{Request: req, Response: resp, Body: body, Message: unknownAPIError}
	if resp == nil {
		return res
	}

	if code, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get(headerAlertCode))); err == nil {
		res.Code = code
	}

	msgs := []string{}
	for _, h := range []string{headerAlertMsg, headerDebugHelp} {
		if v := resp.Header.Get(h); v != "" {
			msgs = append(msgs, v)
		}
	}
	if len(msgs) > 0 {
		res.Message = strings.Join(msgs, ", ")
	}
	return res
}
