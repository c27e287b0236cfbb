package messagequeue

import "time"

// OnboardingCreatedPayload is the schema for onboarding.created messages.
type OnboardingCreatedPayload struct {
	ApplicationID string    `json:"application_id"`
	InitiatedBy   string    `json:"initiated_by"`
	BusinessName  string    `json:"business_name"`
	CountryCode   string    `json:"country_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// OnboardingVerifiedPayload is the schema for onboarding.verified messages.
type OnboardingVerifiedPayload struct {
	ApplicationID string    `json:"application_id"`
	VerifiedAt    time.Time `json:"verified_at"`
}

// TenantProvisionedPayload is the schema for tenants.provisioned messages.
type TenantProvisionedPayload struct {
	TenantID      string    `json:"tenant_id"`
	ApplicationID string    `json:"application_id"`
	SchemaName    string    `json:"schema_name"`
	Domain        string    `json:"domain"`
	OwnerID       string    `json:"owner_id"`
	MembershipID  string    `json:"membership_id"`
	LedgerID      string    `json:"ledger_id"`
	ProvisionedAt time.Time `json:"provisioned_at"`
}
