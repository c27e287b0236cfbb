// Package onboarding defines the onboarding application model and the
// verification/promotion state machine.
package onboarding

import "time"

// BusinessType enumerates the legal forms an applicant may declare in the
// business profile. The profile is a snapshot of submitted data, so values
// outside this set are stored as given.
type BusinessType string

const (
	BusinessTypeSoleProprietorship BusinessType = "SOLE_PROPRIETORSHIP"
	BusinessTypePartnership        BusinessType = "PARTNERSHIP"
	BusinessTypeCorporation        BusinessType = "CORPORATION"
	BusinessTypeLLC                BusinessType = "LLC"
	BusinessTypeNonProfit          BusinessType = "NON_PROFIT"
)

// KnownBusinessTypes is the set of recognised business types.
var KnownBusinessTypes = map[BusinessType]bool{
	BusinessTypeSoleProprietorship: true,
	BusinessTypePartnership:        true,
	BusinessTypeCorporation:        true,
	BusinessTypeLLC:                true,
	BusinessTypeNonProfit:          true,
}

// Application is a prospective business's request to become a tenant.
type Application struct {
	ID              string         `json:"id"`
	InitiatedBy     string         `json:"initiated_by"`
	CountryCode     string         `json:"country_code"`
	BusinessName    string         `json:"business_name"`
	BusinessProfile map[string]any `json:"business_profile"`
	Identifiers     map[string]any `json:"identifiers"`
	Status          Status         `json:"status"`
	VerifiedAt      *time.Time     `json:"verified_at,omitempty"`
	PromotedAt      *time.Time     `json:"promoted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// New builds a DRAFT application from a validated request.
func New(id string, req *CreateRequest, now time.Time) *Application {
	return &Application{
		ID:              id,
		InitiatedBy:     req.InitiatedBy,
		CountryCode:     req.CountryCode,
		BusinessName:    req.BusinessName,
		BusinessProfile: req.BusinessProfile,
		Identifiers:     req.Identifiers,
		Status:          StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// BusinessType returns the business_type declared in the profile.
func (a *Application) BusinessType() BusinessType {
	s, _ := a.BusinessProfile[ProfileKeyBusinessType].(string)
	return BusinessType(s)
}

// CanVerify reports whether the application may move from DRAFT to VERIFIED.
func (a *Application) CanVerify() error {
	_, err := Transition(a.Status, EventVerify)
	return err
}

// ApplyVerify moves the application to VERIFIED and stamps verified_at.
// Call CanVerify first.
func (a *Application) ApplyVerify(now time.Time) {
	a.Status = StatusVerified
	a.VerifiedAt = &now
	a.UpdatedAt = now
}

// Verify validates and applies verification in one call.
func (a *Application) Verify(now time.Time) error {
	if err := a.CanVerify(); err != nil {
		return err
	}
	a.ApplyVerify(now)
	return nil
}

// CanPromote reports whether the application may move from VERIFIED to
// PROMOTED. An application that carries promoted_at is never promoted again,
// even if its status was reset externally.
func (a *Application) CanPromote() error {
	if a.PromotedAt != nil || a.Status == StatusPromoted {
		return stateError(ReasonAlreadyPromoted)
	}
	_, err := Transition(a.Status, EventPromote)
	return err
}

// ApplyPromote moves the application to PROMOTED and stamps promoted_at.
// Call CanPromote first.
func (a *Application) ApplyPromote(now time.Time) {
	a.Status = StatusPromoted
	a.PromotedAt = &now
	a.UpdatedAt = now
}
