package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	appctx "github.com/saeidmoini/salehi-panel/internal/core/context"
	"github.com/saeidmoini/salehi-panel/internal/domain/auth"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/dto"
	"github.com/saeidmoini/salehi-panel/internal/infrastructure/http/v1/middleware"
)

// AuthHandler serves login and user administration.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Login verifies credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Me returns the authenticated user's token claims.
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}
	h.OK(c, user)
}

// CreateUser registers an operator or agent account.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, user)
}

// ListUsers returns the acting company's users.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListForCompany(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, users)
}

// SetUserActive enables or disables an account.
func (h *AuthHandler) SetUserActive(c *gin.Context) {
	id, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.SetActive(c.Request.Context(), id, *req.Active); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "updated")
}
