package gateway

import (
	"net/http"
	"strings"
)

// Provider error codes that refine or replace the HTTP status signal.
var codeClasses = map[string]ErrorClass{
	"request-validation-error": ClassValidation,
	"invalid-wallet":           ClassValidation,
	"country-mismatch":         ClassValidation,
	"api-key-not-provided":     ClassAuthentication,
	"invalid-auth":             ClassAuthentication,
	"api-key-revoked":          ClassAuthentication,
	"not-found":                ClassNotFound,
	"too-many-requests":        ClassRateLimited,
	"request-timeout":          ClassTransient,
	"internal-server-error":    ClassTransient,
	"service-unavailable":      ClassTransient,
	"session-already-expired":  ClassConflict,
	"already-refunded":         ClassConflict,
}

// Classify maps an HTTP status plus an optional provider error code to an
// ErrorClass. Unknown combinations default to Fatal so the caller fails
// closed instead of retrying blindly.
func Classify(httpStatus int, providerCode string) ErrorClass {
	switch httpStatus {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ClassAuthentication
	case http.StatusNotFound:
		return ClassNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ClassValidation
	case http.StatusConflict:
		return ClassConflict
	case http.StatusTooManyRequests:
		return ClassRateLimited
	}
	if httpStatus >= 500 {
		return ClassTransient
	}
	if httpStatus == 0 {
		// No response at all: transport failure.
		return ClassTransient
	}
	if class, ok := codeClasses[strings.ToLower(strings.TrimSpace(providerCode))]; ok {
		return class
	}
	return ClassFatal
}
