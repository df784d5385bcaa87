package dto

import "github.com/saeidmoini/salehi-panel/internal/domain/auth"

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest registers an operator or agent account.
type CreateUserRequest struct {
	CompanyID   *int64  `json:"company_id"`
	Username    string  `json:"username" binding:"required"`
	DisplayName string  `json:"display_name"`
	Password    string  `json:"password" binding:"required"`
	Role        string  `json:"role" binding:"required"`
	AgentType   *string `json:"agent_type"`
	PhoneNumber *string `json:"phone_number"`
	IsSuperuser bool    `json:"is_superuser"`
}

// ToInput converts the request to the service input.
func (r *CreateUserRequest) ToInput() auth.CreateUserInput {
	in := auth.CreateUserInput{
		CompanyID:   r.CompanyID,
		Username:    r.Username,
		DisplayName: r.DisplayName,
		Password:    r.Password,
		Role:        auth.Role(r.Role),
		Phone:       r.PhoneNumber,
		IsSuperuser: r.IsSuperuser,
	}
	if r.AgentType != nil {
		at := auth.AgentType(*r.AgentType)
		in.AgentType = &at
	}
	return in
}

// SetActiveRequest flips an active flag.
type SetActiveRequest struct {
	Active *bool `json:"is_active" binding:"required"`
}
