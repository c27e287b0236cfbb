package onboarding

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shogunhq/shogun/internal/domain"
	"github.com/shogunhq/shogun/internal/domain/tenant"
)

// Required business profile keys.
const (
	ProfileKeyBusinessType = "business_type"
	ProfileKeyIndustry     = "industry"
)

const (
	minCountryCodeLen  = 2
	maxCountryCodeLen  = 5
	maxBusinessNameLen = 255
)

// CreateRequest is the intake payload for a new application.
type CreateRequest struct {
	InitiatedBy     string         `json:"initiated_by"`
	CountryCode     string         `json:"country_code"`
	BusinessName    string         `json:"business_name"`
	BusinessProfile map[string]any `json:"business_profile"`
	Identifiers     map[string]any `json:"identifiers"`
}

// Normalize trims free-text fields and upper-cases the country code.
func (r *CreateRequest) Normalize() {
	r.InitiatedBy = strings.TrimSpace(r.InitiatedBy)
	r.CountryCode = strings.ToUpper(strings.TrimSpace(r.CountryCode))
	r.BusinessName = strings.TrimSpace(r.BusinessName)
}

// Validate checks the request fields. Call Normalize first.
func (r *CreateRequest) Validate() error {
	if r.InitiatedBy == "" {
		return validationError("initiated_by is required")
	}
	if err := validateCountryCode(r.CountryCode); err != nil {
		return err
	}
	if r.BusinessName == "" {
		return validationError("business_name is required")
	}
	if len(r.BusinessName) > maxBusinessNameLen {
		return validationError(fmt.Sprintf("business_name exceeds %d characters", maxBusinessNameLen))
	}
	schema, err := tenant.DeriveSchemaName(r.BusinessName)
	if err != nil {
		return err
	}
	if _, err := tenant.DomainLabel(schema); err != nil {
		return err
	}
	if r.BusinessProfile == nil {
		return validationError("business_profile must be a JSON object")
	}
	for _, key := range []string{ProfileKeyBusinessType, ProfileKeyIndustry} {
		if _, ok := r.BusinessProfile[key]; !ok {
			return validationError(fmt.Sprintf("business_profile must contain '%s' field", key))
		}
	}
	if len(r.Identifiers) == 0 {
		return validationError("at least one business identifier is required")
	}
	return nil
}

func validateCountryCode(code string) error {
	if len(code) < minCountryCodeLen || len(code) > maxCountryCodeLen {
		return validationError("invalid country code")
	}
	for _, c := range code {
		if c > unicode.MaxASCII || !unicode.IsLetter(c) {
			return validationError("invalid country code")
		}
	}
	return nil
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
}
