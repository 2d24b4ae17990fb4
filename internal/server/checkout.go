package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/smallbiznis/wavepay/internal/checkout/domain"
	merchantdomain "github.com/smallbiznis/wavepay/internal/merchant/domain"
)

type createCheckoutSessionRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	ClientReference string `json:"client_reference"`
	SuccessURL      string `json:"success_url"`
	ErrorURL        string `json:"error_url"`
	PayerMobile     string `json:"restrict_payer_mobile"`

	AggregatedMerchantID string `json:"aggregated_merchant_id"`
	BusinessProfileID    string `json:"business_profile_id"`
	MerchantName         string `json:"merchant_name"`
	MerchantBusinessType string `json:"merchant_business_type"`
	MerchantAutoCreate   *bool  `json:"merchant_auto_create"`
}

type createRefundRequest struct {
	Amount int64 `json:"amount"`
}

// @Summary      Create Checkout Session
// @Description  Authorize a payment attempt and return the payer redirect URL
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body createCheckoutSessionRequest true "Create Checkout Session Request"
// @Success      200  {object}  checkoutdomain.Session
// @Router       /checkout/sessions [post]
func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req createCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.checkoutSvc.Authorize(c.Request.Context(), checkoutdomain.AuthorizeRequest{
		Amount:          req.Amount,
		Currency:        req.Currency,
		ClientReference: strings.TrimSpace(req.ClientReference),
		SuccessURL:      strings.TrimSpace(req.SuccessURL),
		ErrorURL:        strings.TrimSpace(req.ErrorURL),
		PayerMobile:     strings.TrimSpace(req.PayerMobile),
		Merchant: merchantdomain.ResolutionContext{
			MerchantID:   strings.TrimSpace(req.AggregatedMerchantID),
			ProfileID:    strings.TrimSpace(req.BusinessProfileID),
			Name:         strings.TrimSpace(req.MerchantName),
			BusinessType: strings.TrimSpace(req.MerchantBusinessType),
			AutoCreate:   req.MerchantAutoCreate,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

// @Summary      Get Checkout Session
// @Description  Re-read the provider session and return the normalized status
// @Tags         checkout
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Session ID"
// @Success      200  {object}  checkoutdomain.Session
// @Router       /checkout/sessions/{id} [get]
func (s *Server) GetCheckoutSession(c *gin.Context) {
	session, err := s.checkoutSvc.Sync(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

// @Summary      Void Checkout Session
// @Description  Expire a pending session
// @Tags         checkout
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Session ID"
// @Success      200  {object}  checkoutdomain.Session
// @Router       /checkout/sessions/{id}/void [post]
func (s *Server) VoidCheckoutSession(c *gin.Context) {
	session, err := s.checkoutSvc.Void(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

// @Summary      Create Refund
// @Description  Refund part or all of a completed session
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Session ID"
// @Param        request body createRefundRequest true "Create Refund Request"
// @Success      200  {object}  checkoutdomain.RefundRecord
// @Router       /checkout/sessions/{id}/refunds [post]
func (s *Server) CreateRefund(c *gin.Context) {
	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.checkoutSvc.Refund(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

// @Summary      Get Refund
// @Description  Poll a refund's status
// @Tags         checkout
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path string true "Refund ID"
// @Success      200  {object}  checkoutdomain.RefundRecord
// @Router       /refunds/{id} [get]
func (s *Server) GetRefund(c *gin.Context) {
	record, err := s.checkoutSvc.RefundSync(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

// @Summary      List Session Journal
// @Description  List recorded provider operations for a session, newest first
// @Tags         checkout
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id    path  string true  "Session ID"
// @Param        limit query int    false "Limit"
// @Success      200  {object}  []journaldomain.Entry
// @Router       /checkout/sessions/{id}/journal [get]
func (s *Server) ListSessionJournal(c *gin.Context) {
	if s.journalSvc == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be an integer"))
			return
		}
		limit = parsed
	}

	entries, err := s.journalSvc.ListBySession(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
