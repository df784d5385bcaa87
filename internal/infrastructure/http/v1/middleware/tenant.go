package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	appctx "github.com/saeidmoini/salehi-panel/internal/core/context"
	"github.com/saeidmoini/salehi-panel/internal/domain/tenant"
)

// Gin context keys set by Tenant.
const (
	CtxCompanyID   = "company_id"
	CtxCompanySlug = "company_slug"
)

// Tenant resolves the company the request acts on. Regular users are bound
// to their token's company; superusers select one with the ?company= query
// (or X-Company header) and must always pick explicitly.
func Tenant(companies *tenant.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		slug := c.Query("company")
		if slug == "" {
			slug = c.GetHeader("X-Company")
		}

		if !user.IsSuperuser {
			// Non-superusers cannot act outside their own company.
			if slug != "" && slug != user.CompanySlug {
				_ = c.Error(apperror.NewForbidden("cross-company access denied").
					WithDetail("company", slug))
				c.Abort()
				return
			}
			if user.CompanyID == 0 {
				_ = c.Error(apperror.NewForbidden("user has no company"))
				c.Abort()
				return
			}
			c.Set(CtxCompanyID, user.CompanyID)
			c.Set(CtxCompanySlug, user.CompanySlug)
			c.Next()
			return
		}

		if slug == "" {
			_ = c.Error(apperror.NewValidation("company is required").
				WithDetail("field", "company"))
			c.Abort()
			return
		}
		company, err := companies.Resolve(c.Request.Context(), slug)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(CtxCompanyID, company.ID)
		c.Set(CtxCompanySlug, company.Slug)
		c.Next()
	}
}

// CompanyID returns the resolved company id for the request.
func CompanyID(c *gin.Context) int64 {
	return c.GetInt64(CtxCompanyID)
}

// CompanySlug returns the resolved company slug for the request.
func CompanySlug(c *gin.Context) string {
	return c.GetString(CtxCompanySlug)
}
