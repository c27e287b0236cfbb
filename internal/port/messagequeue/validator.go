package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject and carries the identifiers consumers
// key on. Unknown subjects only need to be valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectOnboardingCreated:
		var p OnboardingCreatedPayload
		if err := decode(subject, data, &p); err != nil {
			return err
		}
		return require(subject, "application_id", p.ApplicationID)
	case SubjectOnboardingVerified:
		var p OnboardingVerifiedPayload
		if err := decode(subject, data, &p); err != nil {
			return err
		}
		return require(subject, "application_id", p.ApplicationID)
	case SubjectTenantProvisioned:
		var p TenantProvisionedPayload
		if err := decode(subject, data, &p); err != nil {
			return err
		}
		if err := require(subject, "tenant_id", p.TenantID); err != nil {
			return err
		}
		return require(subject, "schema_name", p.SchemaName)
	}
	return nil
}

func decode(subject string, data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}

func require(subject, field, value string) error {
	if value == "" {
		return fmt.Errorf("schema validation failed for %s: %s is required", subject, field)
	}
	return nil
}
