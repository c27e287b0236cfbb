package tenant

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/idna"

	"github.com/shogunhq/shogun/internal/domain"
)

// MaxSchemaNameLen is PostgreSQL's identifier limit (NAMEDATALEN - 1).
const MaxSchemaNameLen = 63

var reservedSchemas = map[string]bool{
	"public":             true,
	"information_schema": true,
}

// DeriveSchemaName maps a business name to its tenant schema name: the name
// trimmed and lower-cased. The result is validated with ValidateSchemaName.
func DeriveSchemaName(businessName string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(businessName))
	if err := ValidateSchemaName(name); err != nil {
		return "", err
	}
	return name, nil
}

// ValidateSchemaName checks that name can be used as a quoted PostgreSQL
// schema identifier without colliding with system schemas.
func ValidateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: schema name is empty", domain.ErrValidation)
	}
	if len(name) > MaxSchemaNameLen {
		return fmt.Errorf("%w: schema name exceeds %d bytes", domain.ErrValidation, MaxSchemaNameLen)
	}
	if reservedSchemas[name] || strings.HasPrefix(name, "pg_") {
		return fmt.Errorf("%w: schema name %q is reserved", domain.ErrValidation, name)
	}
	for _, r := range name {
		if r == '"' || unicode.IsControl(r) {
			return fmt.Errorf("%w: schema name contains invalid characters", domain.ErrValidation)
		}
	}
	return nil
}

// MaxDomainLabelLen is the DNS limit for a single label.
const MaxDomainLabelLen = 63

// DomainLabel maps a schema name to the DNS label of its primary domain.
// Letters (any script), digits and combining marks are kept; every run of
// other characters becomes one hyphen, and leading or trailing runs are
// dropped. Non-ASCII labels are Punycode-encoded ("xn--..."). Two schema
// names share a label only when they differ in punctuation or spacing alone.
//
// A schema with no letter or digit, or whose encoded label exceeds
// MaxDomainLabelLen, fails with domain.ErrValidation.
func DomainLabel(schema string) (string, error) {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(schema) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || (unicode.IsMark(r) && b.Len() > 0) {
			if pendingDash {
				b.WriteByte('-')
				pendingDash = false
			}
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			pendingDash = true
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: business name must contain a letter or digit", domain.ErrValidation)
	}

	// Labels built above never contain "--", so an ASCII label cannot be
	// mistaken for an encoded "xn--" one.
	label, err := idna.Punycode.ToASCII(b.String())
	if err != nil {
		return "", fmt.Errorf("%w: business name cannot be encoded as a domain label: %v", domain.ErrValidation, err)
	}
	if len(label) > MaxDomainLabelLen {
		return "", fmt.Errorf("%w: business name is too long for a domain label (%d > %d bytes)", domain.ErrValidation, len(label), MaxDomainLabelLen)
	}
	return label, nil
}

// PrimaryDomain builds the default host name for a schema: its DomainLabel
// followed by suffix.
func PrimaryDomain(schema, suffix string) (string, error) {
	label, err := DomainLabel(schema)
	if err != nil {
		return "", err
	}
	suffix = strings.Trim(strings.ToLower(strings.TrimSpace(suffix)), ".")
	if suffix == "" {
		return label, nil
	}
	return label + "." + suffix, nil
}
