package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	appctx "github.com/saeidmoini/salehi-panel/internal/core/context"
	"github.com/saeidmoini/salehi-panel/internal/core/phone"
	"github.com/saeidmoini/salehi-panel/internal/domain/tenant"
)

// Service provides login, user management, and the agent resolution the
// dialer report path depends on.
type Service struct {
	repo      Repository
	companies tenant.Repository
	jwt       *JWTService
}

// NewService creates an auth service.
func NewService(repo Repository, companies tenant.Repository, jwt *JWTService) *Service {
	return &Service{repo: repo, companies: companies, jwt: jwt}
}

// LoginResult is the successful login payload.
type LoginResult struct {
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	var slug string
	if user.CompanyID != nil {
		company, err := s.companies.GetByID(ctx, *user.CompanyID)
		if err != nil {
			return nil, err
		}
		slug = company.Slug
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user, slug)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CreateUserInput carries the fields for a new operator or agent account.
type CreateUserInput struct {
	CompanyID   *int64
	Username    string
	DisplayName string
	Password    string
	Role        Role
	AgentType   *AgentType
	Phone       *string
	IsSuperuser bool
}

// CreateUser registers an account. Only superusers may create superusers or
// users outside their own company; company admins may create users within
// their company.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	actor := appctx.GetUser(ctx)
	if actor == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	if in.IsSuperuser && !actor.IsSuperuser {
		return nil, apperror.NewForbidden("only superusers may create superusers")
	}
	if !actor.IsSuperuser {
		if in.CompanyID == nil || *in.CompanyID != actor.CompanyID {
			return nil, apperror.NewForbidden("cross-company access denied")
		}
	}
	if len(in.Password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}

	user := &User{
		CompanyID:   in.CompanyID,
		Username:    strings.TrimSpace(in.Username),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        in.Role,
		AgentType:   in.AgentType,
		Active:      true,
		IsSuperuser: in.IsSuperuser,
	}
	if in.Phone != nil && *in.Phone != "" {
		normalized, ok := phone.Normalize(*in.Phone)
		if !ok {
			return nil, apperror.NewValidation("invalid phone number").
				WithDetail("phone_number", *in.Phone)
		}
		user.Phone = &normalized
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	user.PasswordHash = string(hash)

	return s.repo.Create(ctx, user)
}

// SetActive enables or disables an account within the actor's reach.
func (s *Service) SetActive(ctx context.Context, userID int64, active bool) error {
	actor := appctx.GetUser(ctx)
	if actor == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	target, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !actor.IsSuperuser {
		if target.CompanyID == nil || *target.CompanyID != actor.CompanyID {
			return apperror.NewForbidden("cross-company access denied")
		}
	}
	return s.repo.SetActive(ctx, userID, active)
}

// ListForCompany returns a company's users.
func (s *Service) ListForCompany(ctx context.Context, companyID int64) ([]User, error) {
	return s.repo.ListForCompany(ctx, companyID)
}

// ResolveAgent resolves the agent referenced by a dialer report, by id or by
// normalized phone. The agent must be an active AGENT of the company.
func (s *Service) ResolveAgent(ctx context.Context, companyID int64, agentID *int64, agentPhone string) (*User, error) {
	var agent *User
	var err error

	switch {
	case agentID != nil:
		agent, err = s.repo.GetByID(ctx, *agentID)
	case agentPhone != "":
		normalized, ok := phone.Normalize(agentPhone)
		if !ok {
			return nil, apperror.NewValidation("invalid agent phone").
				WithDetail("agent_phone", agentPhone)
		}
		agent, err = s.repo.GetByPhone(ctx, normalized)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if agent.Role != RoleAgent || agent.CompanyID == nil || *agent.CompanyID != companyID {
		return nil, apperror.NewValidation("agent does not belong to company").
			WithDetail("agent_id", agent.ID)
	}
	if !agent.Active {
		return nil, apperror.NewValidation("agent is inactive").
			WithDetail("agent_id", agent.ID)
	}
	return agent, nil
}

// AgentsByDirection returns a company's active agents split into inbound
// and outbound lists; BOTH appears on both.
func (s *Service) AgentsByDirection(ctx context.Context, companyID int64) (inbound, outbound []User, err error) {
	agents, err := s.repo.ListAgents(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	for _, a := range agents {
		if a.HandlesInbound() {
			inbound = append(inbound, a)
		}
		if a.HandlesOutbound() {
			outbound = append(outbound, a)
		}
	}
	return inbound, outbound, nil
}
