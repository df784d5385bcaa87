// Package tenant provides the Company entity: the unit of scheduling,
// billing, and queue isolation. Dialers and operators always act on behalf
// of exactly one company.
package tenant

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// Company is one isolated tenant.
type Company struct {
	ID          int64           `db:"id" json:"id"`
	Slug        string          `db:"slug" json:"slug"`
	DisplayName string          `db:"display_name" json:"display_name"`
	Active      bool            `db:"is_active" json:"is_active"`
	Settings    json.RawMessage `db:"settings" json:"settings,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Validate checks the company fields.
func (c *Company) Validate() error {
	if !slugPattern.MatchString(c.Slug) {
		return apperror.NewValidation("slug must be lowercase alphanumeric").
			WithDetail("field", "slug").
			WithDetail("value", c.Slug)
	}
	if c.DisplayName == "" {
		return apperror.NewValidation("display name is required").
			WithDetail("field", "display_name")
	}
	return nil
}
