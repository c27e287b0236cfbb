package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shogunhq/shogun/internal/domain/onboarding"
)

const applicationColumns = `id, initiated_by, country_code, business_name, business_profile, identifiers,
	status, verified_at, promoted_at, created_at, updated_at`

func scanApplication(row scannable) (onboarding.Application, error) {
	var a onboarding.Application
	var profileJSON, identifiersJSON []byte
	err := row.Scan(&a.ID, &a.InitiatedBy, &a.CountryCode, &a.BusinessName, &profileJSON, &identifiersJSON,
		&a.Status, &a.VerifiedAt, &a.PromotedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(profileJSON, &a.BusinessProfile); err != nil {
		return a, fmt.Errorf("unmarshal business_profile: %w", err)
	}
	if err := json.Unmarshal(identifiersJSON, &a.Identifiers); err != nil {
		return a, fmt.Errorf("unmarshal identifiers: %w", err)
	}
	return a, nil
}

func (s *Store) CreateApplication(ctx context.Context, app *onboarding.Application) error {
	profileJSON, err := json.Marshal(app.BusinessProfile)
	if err != nil {
		return fmt.Errorf("marshal business_profile: %w", err)
	}
	identifiersJSON, err := json.Marshal(app.Identifiers)
	if err != nil {
		return fmt.Errorf("marshal identifiers: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO onboarding_applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		app.ID, app.InitiatedBy, app.CountryCode, app.BusinessName, profileJSON, identifiersJSON,
		app.Status, app.VerifiedAt, app.PromotedAt, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "create application for %s", app.InitiatedBy)
	}
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*onboarding.Application, error) {
	a, err := scanApplication(s.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM onboarding_applications WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get application %s", id)
	}
	return &a, nil
}

func (s *Store) ListApplications(ctx context.Context, status onboarding.Status) ([]onboarding.Application, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+applicationColumns+` FROM onboarding_applications
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []onboarding.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return orEmpty(apps), rows.Err()
}

// LockApplication selects the application FOR UPDATE so concurrent
// verify/promote calls on the same row are serialized.
func (t *pgTx) LockApplication(ctx context.Context, id string) (*onboarding.Application, error) {
	a, err := scanApplication(t.tx.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM onboarding_applications WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundWrap(err, "lock application %s", id)
	}
	return &a, nil
}

func (t *pgTx) SaveApplicationState(ctx context.Context, app *onboarding.Application) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE onboarding_applications
		SET status = $2, verified_at = $3, promoted_at = $4, updated_at = $5
		WHERE id = $1`,
		app.ID, app.Status, app.VerifiedAt, app.PromotedAt, app.UpdatedAt)
	return execExpectOne(tag, err, "save application %s", app.ID)
}
