package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/smallbiznis/wavepay/internal/checkout/domain"
	"github.com/smallbiznis/wavepay/internal/gateway"
	journaldomain "github.com/smallbiznis/wavepay/internal/journal/domain"
	merchantdomain "github.com/smallbiznis/wavepay/internal/merchant/domain"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not_found")
	ErrRateLimited  = errors.New("rate_limited")
)

type errorDetail struct {
	Loc string `json:"loc"`
	Msg string `json:"msg"`
}

type apiError struct {
	Status  int           `json:"-"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []errorDetail `json:"details,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(loc, code, msg string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: msg,
		Details: []errorDetail{{Loc: loc, Msg: msg}},
	}
}

// AbortWithError translates domain and provider failures into the response
// envelope {code, message, details[{loc, msg}]}.
func AbortWithError(c *gin.Context, err error) {
	resp := toAPIError(err)
	c.AbortWithStatusJSON(resp.Status, gin.H{"error": resp})
}

func toAPIError(err error) *apiError {
	var apierr *apiError
	if errors.As(err, &apierr) {
		return apierr
	}

	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		return fromGatewayError(gerr)
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing or invalid credentials"}
	case errors.Is(err, ErrNotFound):
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	case errors.Is(err, ErrRateLimited):
		return &apiError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
	case errors.Is(err, checkoutdomain.ErrInvalidAmount):
		return newValidationError("amount", "invalid_amount", "amount must be a positive integer in the smallest currency unit")
	case errors.Is(err, checkoutdomain.ErrUnsupportedCurrency):
		return newValidationError("currency", "unsupported_currency", "currency is not supported by the provider")
	case errors.Is(err, checkoutdomain.ErrMissingReturnURL):
		return newValidationError("success_url", "missing_return_url", "success_url and error_url are required")
	case errors.Is(err, checkoutdomain.ErrMissingSessionID),
		errors.Is(err, journaldomain.ErrMissingSessionID):
		return newValidationError("session_id", "missing_session_id", "session id is required")
	case errors.Is(err, checkoutdomain.ErrMissingRefundID):
		return newValidationError("refund_id", "missing_refund_id", "refund id is required")
	case errors.Is(err, checkoutdomain.ErrRefundExceedsBalance):
		return newValidationError("amount", "refund_exceeds_balance", "amount exceeds the remaining refundable balance")
	case errors.Is(err, merchantdomain.ErrInvalidMerchantID):
		return newValidationError("aggregated_merchant_id", "invalid_merchant_id", "aggregated merchant id is malformed")
	case errors.Is(err, checkoutdomain.ErrSessionNotVoidable):
		return &apiError{Status: http.StatusConflict, Code: "session_not_voidable", Message: "session is no longer pending"}
	case errors.Is(err, checkoutdomain.ErrSessionNotCompleted):
		return &apiError{Status: http.StatusConflict, Code: "session_not_completed", Message: "refunds require a completed session"}
	}

	return &apiError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
}

func fromGatewayError(gerr *gateway.Error) *apiError {
	status := gerr.Status
	if status == 0 {
		status = http.StatusBadGateway
	}
	code := gerr.Code
	if code == "" {
		code = "provider_error"
	}
	message := gerr.Message
	if message == "" {
		message = "provider call failed"
	}
	resp := &apiError{Status: status, Code: code, Message: message}
	for _, d := range gerr.Details {
		resp.Details = append(resp.Details, errorDetail{Loc: d.Loc, Msg: d.Msg})
	}
	return resp
}
