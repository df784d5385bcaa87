// Package auth provides operator users, password verification, and JWT
// session issuance. Agents are users too: the dialer resolves them per
// report by id or phone.
package auth

import (
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
)

// Role is the user role within a company.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
)

// AgentType classifies which call directions an agent handles.
type AgentType string

const (
	AgentInbound  AgentType = "INBOUND"
	AgentOutbound AgentType = "OUTBOUND"
	AgentBoth     AgentType = "BOTH"
)

// User is an operator or agent account. Superusers have no company binding.
type User struct {
	ID           int64      `db:"id" json:"id"`
	CompanyID    *int64     `db:"company_id" json:"company_id,omitempty"`
	Username     string     `db:"username" json:"username"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	Role         Role       `db:"role" json:"role"`
	AgentType    *AgentType `db:"agent_type" json:"agent_type,omitempty"`
	Phone        *string    `db:"phone_number" json:"phone_number,omitempty"`
	Active       bool       `db:"is_active" json:"is_active"`
	IsSuperuser  bool       `db:"is_superuser" json:"is_superuser"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Validate checks user fields.
func (u *User) Validate() error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").
			WithDetail("field", "username")
	}
	switch u.Role {
	case RoleAdmin, RoleAgent:
	default:
		return apperror.NewValidation("unsupported role").
			WithDetail("role", string(u.Role))
	}
	if u.Role == RoleAgent {
		if u.AgentType == nil {
			return apperror.NewValidation("agent_type is required for agents").
				WithDetail("field", "agent_type")
		}
		switch *u.AgentType {
		case AgentInbound, AgentOutbound, AgentBoth:
		default:
			return apperror.NewValidation("unsupported agent_type").
				WithDetail("agent_type", string(*u.AgentType))
		}
		if u.CompanyID == nil {
			return apperror.NewValidation("agents must belong to a company").
				WithDetail("field", "company_id")
		}
	}
	if u.IsSuperuser && u.CompanyID != nil {
		return apperror.NewValidation("superusers are not company-bound")
	}
	return nil
}

// HandlesInbound reports whether the agent takes inbound calls.
func (u *User) HandlesInbound() bool {
	return u.AgentType != nil && (*u.AgentType == AgentInbound || *u.AgentType == AgentBoth)
}

// HandlesOutbound reports whether the agent takes outbound calls.
func (u *User) HandlesOutbound() bool {
	return u.AgentType != nil && (*u.AgentType == AgentOutbound || *u.AgentType == AgentBoth)
}
