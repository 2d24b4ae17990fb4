package gateway

import "time"

// CheckoutStatus is the provider-side lifecycle of a checkout session.
type CheckoutStatus string

const (
	CheckoutStatusOpen     CheckoutStatus = "open"
	CheckoutStatusComplete CheckoutStatus = "complete"
	CheckoutStatusExpired  CheckoutStatus = "expired"
)

// PaymentStatus is the provider-side status of the payment nested in a session.
type PaymentStatus string

const (
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// RefundStatus is the provider-side status of a refund.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
)

// CreateCheckoutSessionRequest creates a hosted checkout session. Amount is
// in the smallest currency unit.
type CreateCheckoutSessionRequest struct {
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
	ClientReference      string `json:"client_reference,omitempty"`
	SuccessURL           string `json:"success_url"`
	ErrorURL             string `json:"error_url"`
	AggregatedMerchantID string `json:"aggregated_merchant_id,omitempty"`
	RestrictPayerMobile  string `json:"restrict_payer_mobile,omitempty"`
}

// CheckoutSession mirrors the provider checkout session resource.
type CheckoutSession struct {
	ID                   string         `json:"id"`
	Amount               int64          `json:"amount"`
	Currency             string         `json:"currency"`
	ClientReference      string         `json:"client_reference,omitempty"`
	CheckoutStatus       CheckoutStatus `json:"checkout_status"`
	PaymentStatus        PaymentStatus  `json:"payment_status,omitempty"`
	LaunchURL            string         `json:"wave_launch_url"`
	TransactionID        string         `json:"transaction_id,omitempty"`
	AggregatedMerchantID string         `json:"aggregated_merchant_id,omitempty"`
	WhenCreated          time.Time      `json:"when_created"`
	WhenExpires          time.Time      `json:"when_expires"`
	WhenCompleted        *time.Time     `json:"when_completed,omitempty"`
}

// Refund mirrors the provider refund resource.
type Refund struct {
	ID                string       `json:"id"`
	CheckoutSessionID string       `json:"checkout_session_id"`
	Amount            int64        `json:"amount"`
	Currency          string       `json:"currency"`
	Status            RefundStatus `json:"status"`
	WhenCreated       time.Time    `json:"when_created"`
}

// CreateMerchantRequest registers an aggregated merchant with the provider.
type CreateMerchantRequest struct {
	Name                           string `json:"name"`
	BusinessType                   string `json:"business_type"`
	BusinessDescription            string `json:"business_description,omitempty"`
	BusinessSector                 string `json:"business_sector,omitempty"`
	BusinessRegistrationIdentifier string `json:"business_registration_identifier,omitempty"`
	WebsiteURL                     string `json:"website_url,omitempty"`
	ManagerName                    string `json:"manager_name,omitempty"`
}

// UpdateMerchantRequest patches mutable aggregated merchant fields.
type UpdateMerchantRequest struct {
	Name                string `json:"name,omitempty"`
	BusinessDescription string `json:"business_description,omitempty"`
	BusinessSector      string `json:"business_sector,omitempty"`
	WebsiteURL          string `json:"website_url,omitempty"`
	ManagerName         string `json:"manager_name,omitempty"`
}

// AggregatedMerchant mirrors the provider aggregated merchant resource.
type AggregatedMerchant struct {
	ID                             string    `json:"id"`
	Name                           string    `json:"name"`
	BusinessType                   string    `json:"business_type"`
	BusinessDescription            string    `json:"business_description,omitempty"`
	BusinessSector                 string    `json:"business_sector,omitempty"`
	BusinessRegistrationIdentifier string    `json:"business_registration_identifier,omitempty"`
	WebsiteURL                     string    `json:"website_url,omitempty"`
	ManagerName                    string    `json:"manager_name,omitempty"`
	IsLocked                       bool      `json:"is_locked"`
	WhenCreated                    time.Time `json:"when_created"`
}

type merchantListResponse struct {
	Items []AggregatedMerchant `json:"items"`
}
