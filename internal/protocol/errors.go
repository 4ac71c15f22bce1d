package protocol

import "net/http"

// Error type tags.
const (
	ErrorTypeProxy        = "proxy_error"
	ErrorTypeNotSupported = "not_supported"
)

// ErrorDetail describes a single error: a human-readable message, a category
// tag, and the numeric HTTP status the serving layer should answer with.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// ErrorResponse is the uniform error envelope returned by the proxy.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// NewProxyError wraps a failed remote call (or translation) into the uniform
// proxy_error shape, preserving the original cause text.
func NewProxyError(message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    ErrorTypeProxy,
		Code:    http.StatusInternalServerError,
	}}
}

// NewNotSupportedError reports an operation the proxy deliberately does not
// implement. This is a designed response, not a failure.
func NewNotSupportedError(message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    ErrorTypeNotSupported,
		Code:    http.StatusNotImplemented,
	}}
}

// StatusCode returns the HTTP status carried by the error, defaulting to 500.
func (e *ErrorResponse) StatusCode() int {
	if e == nil || e.Error.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Error.Code
}
