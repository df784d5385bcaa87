package dialer

import (
	"context"
	"strings"
	"time"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/core/phone"
	"github.com/saeidmoini/salehi-panel/internal/core/tx"
	"github.com/saeidmoini/salehi-panel/internal/domain/auth"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
	"github.com/saeidmoini/salehi-panel/pkg/logger"
)

// CallGate decides whether a company may place calls right now.
type CallGate interface {
	IsCallAllowed(ctx context.Context, companyID int64, now time.Time) (*schedule.Decision, error)
}

// CallCharger deducts the per-call cost after a billable outcome.
type CallCharger interface {
	ChargeForConnectedCall(ctx context.Context, companyID int64, scenarioCost *int64) error
}

// AgentDirectory resolves and lists a company's agents.
type AgentDirectory interface {
	ResolveAgent(ctx context.Context, companyID int64, agentID *int64, agentPhone string) (*auth.User, error)
	AgentsByDirection(ctx context.Context, companyID int64) (inbound, outbound []auth.User, err error)
}

// Config carries the batch-sizing and lease knobs.
type Config struct {
	Timezone          string
	DefaultBatchSize  int
	MaxBatchSize      int
	AssignmentTimeout time.Duration
	CallCooldown      time.Duration
}

// Service is the dialer-facing engine: batch claims and result ingestion.
type Service struct {
	repo      Repository
	numbers   numbers.Repository
	results   numbers.ResultRepository
	schedules schedule.Repository
	gate      CallGate
	charger   CallCharger
	agents    AgentDirectory
	txm       tx.Manager
	cfg       Config
}

// NewService creates a dialer service.
func NewService(
	repo Repository,
	numberRepo numbers.Repository,
	resultRepo numbers.ResultRepository,
	schedules schedule.Repository,
	gate CallGate,
	charger CallCharger,
	agents AgentDirectory,
	txm tx.Manager,
	cfg Config,
) *Service {
	return &Service{
		repo:      repo,
		numbers:   numberRepo,
		results:   resultRepo,
		schedules: schedules,
		gate:      gate,
		charger:   charger,
		agents:    agents,
		txm:       txm,
		cfg:       cfg,
	}
}

// FetchNextBatch evaluates the gate and, when allowed, claims up to the
// resolved size of callable numbers for the company. requestedSize and
// activeLinesCount come from the dialer and are advisory: the line count is
// clamped to the authoritative count, the size to [0, max].
func (s *Service) FetchNextBatch(ctx context.Context, companyID int64, requestedSize, activeLinesCount *int) (*NextBatchResponse, error) {
	now := time.Now().UTC()

	decision, err := s.gate.IsCallAllowed(ctx, companyID, now)
	if err != nil {
		return nil, err
	}

	resp := &NextBatchResponse{
		CallAllowed:     decision.Allowed,
		Timezone:        s.cfg.Timezone,
		ServerTime:      now,
		ScheduleVersion: decision.Version,
		ActiveScenarios: []ScenarioInfo{},
		OutboundLines:   []LineInfo{},
		InboundAgents:   []AgentInfo{},
		OutboundAgents:  []AgentInfo{},
	}
	if !decision.Allowed {
		resp.Reason = decision.Reason
		resp.RetryAfterSeconds = decision.RetryAfterSeconds
		return resp, nil
	}

	size, err := s.resolveBatchSize(ctx, companyID, requestedSize, activeLinesCount)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		ID:            NewBatchID(),
		CompanyID:     companyID,
		RequestedSize: size,
		CreatedAt:     now,
	}
	var claimed []numbers.Number

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		reclaimed, err := s.repo.ReclaimStaleAssignments(ctx, now.Add(-s.cfg.AssignmentTimeout))
		if err != nil {
			return err
		}
		if reclaimed > 0 {
			logger.Info(ctx, "stale leases reclaimed", "count", reclaimed)
		}

		if size > 0 {
			cooldownCutoff := now.Add(-s.cfg.CallCooldown)
			claimed, err = s.repo.ClaimNumbers(ctx, companyID, size, cooldownCutoff, now, batch.ID)
			if err != nil {
				return err
			}
		}

		batch.ReturnedSize = len(claimed)
		if err := s.repo.InsertBatch(ctx, batch); err != nil {
			return err
		}

		items := make([]BatchItem, 0, len(claimed))
		for _, n := range claimed {
			items = append(items, BatchItem{
				BatchID:    batch.ID,
				CompanyID:  companyID,
				NumberID:   n.ID,
				AssignedAt: now,
			})
		}
		if len(items) > 0 {
			return s.repo.InsertBatchItems(ctx, items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := &BatchPayload{
		BatchID:       batch.ID,
		SizeRequested: size,
		SizeReturned:  len(claimed),
		Numbers:       make([]NumberRef, 0, len(claimed)),
	}
	for _, n := range claimed {
		payload.Numbers = append(payload.Numbers, NumberRef{ID: n.ID, PhoneNumber: n.Phone})
	}
	resp.Batch = payload

	if err := s.fillDirectory(ctx, companyID, resp); err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch claimed",
		"company_id", companyID,
		"batch_id", batch.ID,
		"size_requested", size,
		"size_returned", len(claimed),
	)
	return resp, nil
}

// resolveBatchSize applies the sizing rules: client line count clamped to
// the authoritative count, default size scaled per line, explicit client
// size taken as-is. The result is clamped into [0, max]; an explicit zero
// stays zero.
func (s *Service) resolveBatchSize(ctx context.Context, companyID int64, requestedSize, activeLinesCount *int) (int, error) {
	if requestedSize == nil {
		lines, err := s.repo.CountActiveLines(ctx, companyID)
		if err != nil {
			return 0, err
		}
		if activeLinesCount != nil && *activeLinesCount < lines {
			lines = *activeLinesCount
		}
		if lines < 0 {
			lines = 0
		}
		size := s.cfg.DefaultBatchSize * lines
		if size > s.cfg.MaxBatchSize {
			size = s.cfg.MaxBatchSize
		}
		return size, nil
	}

	size := *requestedSize
	if size < 0 {
		size = 0
	}
	if size > s.cfg.MaxBatchSize {
		size = s.cfg.MaxBatchSize
	}
	return size, nil
}

func (s *Service) fillDirectory(ctx context.Context, companyID int64, resp *NextBatchResponse) error {
	scenarios, err := s.repo.ListActiveScenarios(ctx, companyID)
	if err != nil {
		return err
	}
	for _, sc := range scenarios {
		resp.ActiveScenarios = append(resp.ActiveScenarios, ScenarioInfo{
			ID:          sc.ID,
			Name:        sc.Name,
			DisplayName: sc.DisplayName,
		})
	}

	lines, err := s.repo.ListActiveLines(ctx, companyID)
	if err != nil {
		return err
	}
	for _, l := range lines {
		resp.OutboundLines = append(resp.OutboundLines, LineInfo{
			ID:          l.ID,
			PhoneNumber: l.Phone,
			DisplayName: l.DisplayName,
		})
	}

	inbound, outbound, err := s.agents.AgentsByDirection(ctx, companyID)
	if err != nil {
		return err
	}
	resp.InboundAgents = agentInfos(inbound)
	resp.OutboundAgents = agentInfos(outbound)
	return nil
}

func agentInfos(users []auth.User) []AgentInfo {
	out := make([]AgentInfo, 0, len(users))
	for _, u := range users {
		info := AgentInfo{ID: u.ID, DisplayName: u.DisplayName}
		if u.Phone != nil {
			info.Phone = *u.Phone
		}
		out = append(out, info)
	}
	return out
}

// ReportResult ingests one call outcome: resolves or auto-creates the
// number, appends the CallResult, links the batch trace, and applies the
// dialer's call_allowed announcement. Billable outcomes are charged after
// the transaction commits.
func (s *Service) ReportResult(ctx context.Context, companyID int64, report *Report) (*ReportAck, error) {
	normalized, ok := phone.Normalize(report.PhoneNumber)
	if !ok {
		return nil, apperror.NewValidation("invalid phone number").
			WithDetail("phone_number", report.PhoneNumber)
	}
	if !report.Status.Valid() {
		return nil, apperror.NewValidation("unknown call status").
			WithDetail("status", string(report.Status))
	}
	if report.AttemptedAt.IsZero() {
		return nil, apperror.NewValidation("attempted_at is required")
	}
	attemptedAt := report.AttemptedAt.UTC()

	agent, err := s.agents.ResolveAgent(ctx, companyID, report.AgentID, report.AgentPhone)
	if err != nil {
		return nil, err
	}

	var (
		number *numbers.Number
		result *numbers.CallResult
	)
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		number, err = s.resolveNumber(ctx, report.NumberID, normalized)
		if err != nil {
			return err
		}
		assignedBatchSnapshot := number.AssignedBatchID

		global := numbers.GlobalStatusFor(report.Status)
		if err := s.numbers.MarkReported(ctx, number.ID, companyID, attemptedAt, global); err != nil {
			return err
		}
		number.GlobalStatus = global

		direction := numbers.DirectionOutbound
		if report.NumberID == nil {
			direction = numbers.DirectionInbound
		}

		result = &numbers.CallResult{
			NumberID:       number.ID,
			CompanyID:      companyID,
			ScenarioID:     report.ScenarioID,
			OutboundLineID: report.OutboundLineID,
			Direction:      direction,
			Status:         report.Status,
			Reason:         report.Reason,
			UserMessage:    report.UserMessage,
			AttemptedAt:    attemptedAt,
		}
		if agent != nil {
			result.AgentID = &agent.ID
		}
		result, err = s.results.Insert(ctx, result)
		if err != nil {
			return err
		}

		if err := s.linkBatchItem(ctx, companyID, number.ID, assignedBatchSnapshot, report, result); err != nil {
			return err
		}

		if report.CallAllowed != nil {
			if err := s.applyCallAllowed(ctx, companyID, *report.CallAllowed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if report.Status.Billable() {
		s.chargeAfterCommit(ctx, companyID, report.ScenarioID)
	}

	return &ReportAck{
		ID:           number.ID,
		GlobalStatus: number.GlobalStatus,
		PhoneNumber:  number.Phone,
	}, nil
}

// resolveNumber finds the target row: by id when its phone matches, by
// locked phone lookup otherwise, auto-creating on first contact. A create
// racing another reporter falls back to the re-select.
func (s *Service) resolveNumber(ctx context.Context, numberID *int64, normalizedPhone string) (*numbers.Number, error) {
	if numberID != nil {
		number, err := s.numbers.GetByID(ctx, *numberID)
		if err == nil && number.Phone == normalizedPhone {
			return number, nil
		}
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		// Id unknown or pointing at a different phone: trust the phone.
	}

	number, err := s.numbers.GetByPhoneForUpdate(ctx, normalizedPhone)
	if err == nil {
		return number, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	number, err = s.numbers.Create(ctx, normalizedPhone, numbers.GlobalActive)
	if err == nil {
		return number, nil
	}
	if apperror.IsConflict(err) {
		return s.numbers.GetByPhoneForUpdate(ctx, normalizedPhone)
	}
	return nil, err
}

// linkBatchItem attaches the report to its trace row: the reported batch id
// first, the lease snapshot second, the newest item for the pair third, and
// a fresh row when the claim predates tracing.
func (s *Service) linkBatchItem(ctx context.Context, companyID, numberID int64, assignedBatch *string, report *Report, result *numbers.CallResult) error {
	var item *BatchItem
	var err error

	if report.BatchID != nil && *report.BatchID != "" {
		item, err = s.repo.GetItemByBatch(ctx, *report.BatchID, companyID, numberID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
	}
	if item == nil && assignedBatch != nil && *assignedBatch != "" {
		item, err = s.repo.GetItemByBatch(ctx, *assignedBatch, companyID, numberID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
	}
	if item == nil {
		item, err = s.repo.GetNewestItem(ctx, companyID, numberID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
	}

	now := time.Now().UTC()
	if item == nil {
		item = &BatchItem{
			CompanyID:  companyID,
			NumberID:   numberID,
			AssignedAt: now,
		}
		if report.BatchID != nil {
			item.BatchID = *report.BatchID
		}
		if item.BatchID == "" && assignedBatch != nil {
			item.BatchID = *assignedBatch
		}
		if err := s.repo.InsertBatchItem(ctx, item); err != nil {
			return err
		}
	}

	status := string(result.Status)
	item.ReportedAt = &now
	item.ReportBatchID = report.BatchID
	item.ReportCallResultID = &result.ID
	item.ReportAttemptedAt = &result.AttemptedAt
	item.ReportStatus = &status
	item.ReportScenarioID = report.ScenarioID
	item.ReportOutboundLineID = report.OutboundLineID
	item.ReportReason = report.Reason
	return s.repo.UpdateItemReport(ctx, item)
}

// applyCallAllowed lets the dialer announce that it stopped or resumed
// calling; the flag maps onto enabled/disabled_by_dialer with a version
// bump when anything changes.
func (s *Service) applyCallAllowed(ctx context.Context, companyID int64, allowed bool) error {
	if _, err := s.schedules.EnsureConfig(ctx, companyID); err != nil {
		return err
	}
	cfg, err := s.schedules.GetConfigForUpdate(ctx, companyID)
	if err != nil {
		return err
	}
	if cfg.Enabled == allowed && cfg.DisabledByDialer == !allowed {
		return nil
	}
	cfg.Enabled = allowed
	cfg.DisabledByDialer = !allowed
	cfg.Version++
	return s.schedules.SaveConfig(ctx, cfg)
}

// chargeAfterCommit resolves the scenario cost override and charges the
// wallet. The report is already committed; a charge failure is logged and
// does not fail the report.
func (s *Service) chargeAfterCommit(ctx context.Context, companyID int64, scenarioID *int64) {
	var scenarioCost *int64
	if scenarioID != nil {
		sc, err := s.repo.GetScenario(ctx, companyID, *scenarioID)
		switch {
		case err == nil:
			scenarioCost = sc.CostPerConnected
		case apperror.IsNotFound(err):
			logger.Warn(ctx, "report references unknown scenario",
				"company_id", companyID,
				"scenario_id", *scenarioID,
			)
		default:
			logger.Error(ctx, "scenario lookup failed", "error", err)
		}
	}
	if err := s.charger.ChargeForConnectedCall(ctx, companyID, scenarioCost); err != nil {
		logger.Error(ctx, "call charge failed",
			"company_id", companyID,
			"error", err,
		)
	}
}

// RegisterScenarios upserts the dialer's scenario catalog on startup.
// Existing scenarios are re-activated and renamed for display; costs set by
// operators are left alone.
func (s *Service) RegisterScenarios(ctx context.Context, companyID int64, scenarios []ScenarioInfo) (*RegisterCounts, error) {
	counts := &RegisterCounts{}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, in := range scenarios {
			name := strings.TrimSpace(in.Name)
			if name == "" {
				counts.Skipped++
				continue
			}
			display := strings.TrimSpace(in.DisplayName)
			if display == "" {
				display = name
			}

			existing, err := s.repo.FindScenarioByName(ctx, companyID, name)
			switch {
			case err == nil:
				existing.DisplayName = display
				existing.Active = true
				if err := s.repo.UpdateScenario(ctx, existing); err != nil {
					return err
				}
				counts.Updated++
			case apperror.IsNotFound(err):
				sc := &Scenario{
					CompanyID:   companyID,
					Name:        name,
					DisplayName: display,
					Active:      true,
				}
				if err := s.repo.CreateScenario(ctx, sc); err != nil {
					return err
				}
				counts.Created++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// RegisterOutboundLines upserts the dialer's line catalog on startup.
// Unparseable phones are skipped and counted rather than failing the batch.
func (s *Service) RegisterOutboundLines(ctx context.Context, companyID int64, lines []LineInfo) (*RegisterCounts, error) {
	counts := &RegisterCounts{}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, in := range lines {
			normalized, ok := phone.Normalize(in.PhoneNumber)
			if !ok {
				counts.Skipped++
				continue
			}
			display := strings.TrimSpace(in.DisplayName)
			if display == "" {
				display = normalized
			}

			existing, err := s.repo.FindLineByPhone(ctx, companyID, normalized)
			switch {
			case err == nil:
				existing.DisplayName = display
				existing.Active = true
				if err := s.repo.UpdateLine(ctx, existing); err != nil {
					return err
				}
				counts.Updated++
			case apperror.IsNotFound(err):
				line := &OutboundLine{
					CompanyID:   companyID,
					Phone:       normalized,
					DisplayName: display,
					Active:      true,
				}
				if err := s.repo.CreateLine(ctx, line); err != nil {
					return err
				}
				counts.Created++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
