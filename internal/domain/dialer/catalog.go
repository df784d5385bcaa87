package dialer

import (
	"context"
	"strings"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/core/phone"
)

// Operator-facing catalog management for scenarios and outbound lines.

// ListScenarios returns every scenario of the company.
func (s *Service) ListScenarios(ctx context.Context, companyID int64) ([]Scenario, error) {
	return s.repo.ListScenarios(ctx, companyID)
}

// ScenarioInput carries operator scenario fields. Nil CostPerConnected
// means the company default applies.
type ScenarioInput struct {
	Name             string
	DisplayName      string
	CostPerConnected *int64
	Active           *bool
}

// CreateScenario registers a scenario by operator action.
func (s *Service) CreateScenario(ctx context.Context, companyID int64, in ScenarioInput) (*Scenario, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.NewValidation("scenario name is required")
	}
	if in.CostPerConnected != nil && *in.CostPerConnected < 0 {
		return nil, apperror.NewValidation("cost_per_connected must not be negative").
			WithDetail("cost_per_connected", *in.CostPerConnected)
	}
	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = name
	}

	sc := &Scenario{
		CompanyID:        companyID,
		Name:             name,
		DisplayName:      display,
		CostPerConnected: in.CostPerConnected,
		Active:           true,
	}
	if in.Active != nil {
		sc.Active = *in.Active
	}
	if err := s.repo.CreateScenario(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// UpdateScenario patches display name, cost override, and active flag.
func (s *Service) UpdateScenario(ctx context.Context, companyID, scenarioID int64, in ScenarioInput) (*Scenario, error) {
	sc, err := s.repo.GetScenario(ctx, companyID, scenarioID)
	if err != nil {
		return nil, err
	}
	if display := strings.TrimSpace(in.DisplayName); display != "" {
		sc.DisplayName = display
	}
	if in.CostPerConnected != nil {
		if *in.CostPerConnected < 0 {
			return nil, apperror.NewValidation("cost_per_connected must not be negative").
				WithDetail("cost_per_connected", *in.CostPerConnected)
		}
		sc.CostPerConnected = in.CostPerConnected
	}
	if in.Active != nil {
		sc.Active = *in.Active
	}
	if err := s.repo.UpdateScenario(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// ListLines returns every outbound line of the company.
func (s *Service) ListLines(ctx context.Context, companyID int64) ([]OutboundLine, error) {
	return s.repo.ListLines(ctx, companyID)
}

// LineInput carries operator outbound line fields.
type LineInput struct {
	PhoneNumber string
	DisplayName string
	Active      *bool
}

// CreateLine registers an outbound line by operator action.
func (s *Service) CreateLine(ctx context.Context, companyID int64, in LineInput) (*OutboundLine, error) {
	normalized, ok := phone.Normalize(in.PhoneNumber)
	if !ok {
		return nil, apperror.NewValidation("invalid phone number").
			WithDetail("phone_number", in.PhoneNumber)
	}
	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = normalized
	}

	line := &OutboundLine{
		CompanyID:   companyID,
		Phone:       normalized,
		DisplayName: display,
		Active:      true,
	}
	if in.Active != nil {
		line.Active = *in.Active
	}
	if err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLine patches display name and active flag.
func (s *Service) UpdateLine(ctx context.Context, companyID, lineID int64, in LineInput) (*OutboundLine, error) {
	line, err := s.repo.GetLine(ctx, companyID, lineID)
	if err != nil {
		return nil, err
	}

	if display := strings.TrimSpace(in.DisplayName); display != "" {
		line.DisplayName = display
	}
	if in.Active != nil {
		line.Active = *in.Active
	}
	if err := s.repo.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}
