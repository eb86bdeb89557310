package response

import "net/http"

// APIResponseCode is the business code carried in the envelope.
type APIResponseCode int

const (
	APIResponseCodeOK              APIResponseCode = 0
	APIResponseCodeBadRequest      APIResponseCode = 40000
	APIResponseCodeUnauthenticated APIResponseCode = 40100
	APIResponseCodeForbidden       APIResponseCode = 40300
	APIResponseCodeNotFound        APIResponseCode = 40400
	APIResponseCodeConflict        APIResponseCode = 40900
	APIResponseCodeError           APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:              "ok",
	APIResponseCodeBadRequest:      "bad request",
	APIResponseCodeUnauthenticated: "authentication required",
	APIResponseCodeForbidden:       "forbidden",
	APIResponseCodeNotFound:        "not found",
	APIResponseCodeConflict:        "conflict",
	APIResponseCodeError:           "unexpected error",
}

// APIResponse is the generic response envelope used by HTTP APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with the default message for code.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// ErrorMsgT returns an error response with an explicit caller-safe message.
func ErrorMsgT[T any](code APIResponseCode, message string, data T) *APIResponse[T] {
	if message == "" {
		message = codeToMsg[code]
	}
	return &APIResponse[T]{Code: code, Message: message, Data: data}
}

// CodeFromHTTPStatus picks the envelope code matching an HTTP status.
func CodeFromHTTPStatus(status int) APIResponseCode {
	switch status {
	case http.StatusOK:
		return APIResponseCodeOK
	case http.StatusBadRequest:
		return APIResponseCodeBadRequest
	case http.StatusUnauthorized:
		return APIResponseCodeUnauthenticated
	case http.StatusForbidden:
		return APIResponseCodeForbidden
	case http.StatusNotFound:
		return APIResponseCodeNotFound
	case http.StatusConflict:
		return APIResponseCodeConflict
	default:
		return APIResponseCodeError
	}
}
