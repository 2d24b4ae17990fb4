package domain

import (
	"strings"
	"time"
)

// MerchantIDPrefix is the provider prefix for aggregated merchant ids.
const MerchantIDPrefix = "am-"

// MerchantIdentity is the read-through copy of a provider aggregated
// merchant. The provider owns the record; the core only caches it.
type MerchantIdentity struct {
	ID                     string
	Name                   string
	BusinessType           string
	BusinessDescription    string
	BusinessSector         string
	RegistrationIdentifier string
	WebsiteURL             string
	ManagerName            string
	IsLocked               bool
	WhenCreated            time.Time
}

// ResolutionKey is a deterministic cache key derived from caller context.
type ResolutionKey string

// ResolutionContext carries everything a caller knows about the identity it
// wants attached to a checkout session.
type ResolutionContext struct {
	// MerchantID is an explicit provider-prefixed id. When set it is
	// trusted as-is: no cache, no network.
	MerchantID string

	// ProfileID identifies the caller's business profile and derives
	// the ResolutionKey.
	ProfileID string

	// Creation metadata used when auto-creation kicks in.
	Name                string
	BusinessType        string
	BusinessDescription string
	BusinessSector      string
	WebsiteURL          string
	ManagerName         string

	// Per-context overrides; nil falls back to the configured default.
	AutoCreate   *bool
	CacheEnabled *bool
}

// Key derives the ResolutionKey for this context. Empty when the context
// has no business profile to key on.
func (c ResolutionContext) Key() ResolutionKey {
	profile := strings.TrimSpace(c.ProfileID)
	if profile == "" {
		return ""
	}
	return ResolutionKey("profile:" + profile)
}

// ValidMerchantID reports whether id is a well-formed provider merchant id.
func ValidMerchantID(id string) bool {
	id = strings.TrimSpace(id)
	return strings.HasPrefix(id, MerchantIDPrefix) && len(id) > len(MerchantIDPrefix)
}
