package dto

// CreateCompanyRequest registers a tenant.
type CreateCompanyRequest struct {
	Slug        string `json:"slug" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
}
