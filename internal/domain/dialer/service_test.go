package dialer

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeidmoini/salehi-panel/internal/core/apperror"
	"github.com/saeidmoini/salehi-panel/internal/domain/auth"
	"github.com/saeidmoini/salehi-panel/internal/domain/numbers"
	"github.com/saeidmoini/salehi-panel/internal/domain/schedule"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeGate struct {
	decision schedule.Decision
}

func (f *fakeGate) IsCallAllowed(_ context.Context, _ int64, _ time.Time) (*schedule.Decision, error) {
	d := f.decision
	return &d, nil
}

type fakeCharger struct {
	calls []*int64
}

func (f *fakeCharger) ChargeForConnectedCall(_ context.Context, _ int64, scenarioCost *int64) error {
	f.calls = append(f.calls, scenarioCost)
	return nil
}

type fakeAgents struct {
	byID map[int64]*auth.User
}

func (f *fakeAgents) ResolveAgent(_ context.Context, companyID int64, agentID *int64, _ string) (*auth.User, error) {
	if agentID == nil {
		return nil, nil
	}
	agent, ok := f.byID[*agentID]
	if !ok {
		return nil, apperror.NewNotFound("user not found")
	}
	if agent.CompanyID == nil || *agent.CompanyID != companyID {
		return nil, apperror.NewValidation("agent does not belong to company")
	}
	return agent, nil
}

func (f *fakeAgents) AgentsByDirection(_ context.Context, _ int64) ([]auth.User, []auth.User, error) {
	var inbound, outbound []auth.User
	for _, a := range f.byID {
		if a.HandlesInbound() {
			inbound = append(inbound, *a)
		}
		if a.HandlesOutbound() {
			outbound = append(outbound, *a)
		}
	}
	return inbound, outbound, nil
}

type fakeNumberRepo struct {
	byID    map[int64]*numbers.Number
	byPhone map[string]*numbers.Number
	nextID  int64
}

func newFakeNumberRepo() *fakeNumberRepo {
	return &fakeNumberRepo{byID: map[int64]*numbers.Number{}, byPhone: map[string]*numbers.Number{}, nextID: 1}
}

func (f *fakeNumberRepo) add(phone string) *numbers.Number {
	n := &numbers.Number{ID: f.nextID, Phone: phone, GlobalStatus: numbers.GlobalActive}
	f.nextID++
	f.byID[n.ID] = n
	f.byPhone[n.Phone] = n
	return n
}

func (f *fakeNumberRepo) GetByID(_ context.Context, id int64) (*numbers.Number, error) {
	if n, ok := f.byID[id]; ok {
		return n, nil
	}
	return nil, apperror.NewNotFound("number not found")
}

func (f *fakeNumberRepo) GetByPhoneForUpdate(_ context.Context, phone string) (*numbers.Number, error) {
	if n, ok := f.byPhone[phone]; ok {
		return n, nil
	}
	return nil, apperror.NewNotFound("number not found")
}

func (f *fakeNumberRepo) Create(_ context.Context, phone string, status numbers.GlobalStatus) (*numbers.Number, error) {
	if _, ok := f.byPhone[phone]; ok {
		return nil, apperror.NewDuplicate("number", "phone_number", phone)
	}
	n := f.add(phone)
	n.GlobalStatus = status
	return n, nil
}

func (f *fakeNumberRepo) InsertMissing(_ context.Context, _ []string) (int, error) { return 0, nil }

func (f *fakeNumberRepo) ListForCompany(_ context.Context, _ int64, _ numbers.ListFilter) ([]numbers.TenantNumber, int64, error) {
	return nil, 0, nil
}

func (f *fakeNumberRepo) ClearAssignment(_ context.Context, ids []int64) error {
	for _, id := range ids {
		if n, ok := f.byID[id]; ok {
			n.AssignedAt = nil
			n.AssignedBatchID = nil
		}
	}
	return nil
}

func (f *fakeNumberRepo) MarkReported(_ context.Context, id, companyID int64, attemptedAt time.Time, global numbers.GlobalStatus) error {
	n := f.byID[id]
	n.LastCalledAt = &attemptedAt
	n.LastCalledCompany = &companyID
	n.AssignedAt = nil
	n.AssignedBatchID = nil
	n.GlobalStatus = global
	return nil
}

func (f *fakeNumberRepo) SetGlobalStatus(_ context.Context, id int64, global numbers.GlobalStatus) error {
	f.byID[id].GlobalStatus = global
	return nil
}

func (f *fakeNumberRepo) RecomputeGlobalStatus(_ context.Context, id int64) (numbers.GlobalStatus, error) {
	return f.byID[id].GlobalStatus, nil
}

func (f *fakeNumberRepo) SetNote(_ context.Context, _ int64, _ string) error { return nil }

type fakeResultRepo struct {
	rows   []numbers.CallResult
	nextID int64
}

func (f *fakeResultRepo) Insert(_ context.Context, r *numbers.CallResult) (*numbers.CallResult, error) {
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now().UTC()
	f.rows = append(f.rows, *r)
	return r, nil
}

func (f *fakeResultRepo) LatestForPair(_ context.Context, companyID, numberID int64) (*numbers.CallResult, error) {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].CompanyID == companyID && f.rows[i].NumberID == numberID {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, apperror.NewNotFound("no results")
}

func (f *fakeResultRepo) CountForPair(_ context.Context, companyID, numberID int64) (int, error) {
	count := 0
	for _, r := range f.rows {
		if r.CompanyID == companyID && r.NumberID == numberID {
			count++
		}
	}
	return count, nil
}

func (f *fakeResultRepo) UpdateStatus(_ context.Context, _ int64, _ numbers.CallStatus) error {
	return nil
}

func (f *fakeResultRepo) DeleteForPair(_ context.Context, _ int64, _ []int64) (int64, error) {
	return 0, nil
}

type fakeScheduleRepo struct {
	cfg *schedule.Config
}

func (f *fakeScheduleRepo) EnsureConfig(_ context.Context, companyID int64) (*schedule.Config, error) {
	if f.cfg == nil {
		f.cfg = &schedule.Config{ID: 1, CompanyID: companyID, Enabled: true, Version: 1}
	}
	return f.cfg, nil
}

func (f *fakeScheduleRepo) GetConfigForUpdate(ctx context.Context, companyID int64) (*schedule.Config, error) {
	return f.EnsureConfig(ctx, companyID)
}

func (f *fakeScheduleRepo) SaveConfig(_ context.Context, cfg *schedule.Config) error {
	f.cfg = cfg
	return nil
}

func (f *fakeScheduleRepo) ListWindows(_ context.Context, _ int64) ([]schedule.Window, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) ReplaceWindows(_ context.Context, _ int64, _ []schedule.Window) error {
	return nil
}

type fakeDialerRepo struct {
	numbers   *fakeNumberRepo
	results   *fakeResultRepo
	batches   map[string]*Batch
	items     []*BatchItem
	scenarios map[int64]*Scenario
	lines     map[int64]*OutboundLine
	nextID    int64
	reclaimed int64
}

func newFakeDialerRepo(nums *fakeNumberRepo, results *fakeResultRepo) *fakeDialerRepo {
	return &fakeDialerRepo{
		numbers:   nums,
		results:   results,
		batches:   map[string]*Batch{},
		scenarios: map[int64]*Scenario{},
		lines:     map[int64]*OutboundLine{},
		nextID:    100,
	}
}

func (f *fakeDialerRepo) ReclaimStaleAssignments(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, num := range f.numbers.byID {
		if num.AssignedAt != nil && !num.AssignedAt.After(cutoff) {
			num.AssignedAt = nil
			num.AssignedBatchID = nil
			n++
		}
	}
	f.reclaimed += n
	return n, nil
}

func (f *fakeDialerRepo) ClaimNumbers(_ context.Context, companyID int64, limit int, cooldownCutoff, now time.Time, batchID string) ([]numbers.Number, error) {
	var ids []int64
	for id := range f.numbers.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var claimed []numbers.Number
	for _, id := range ids {
		if len(claimed) >= limit {
			break
		}
		n := f.numbers.byID[id]
		if n.GlobalStatus != numbers.GlobalActive || n.AssignedAt != nil {
			continue
		}
		if n.LastCalledAt != nil && !n.LastCalledAt.Before(cooldownCutoff) {
			continue
		}
		if f.results != nil {
			count, _ := f.results.CountForPair(context.Background(), companyID, n.ID)
			if count > 0 {
				continue
			}
		}
		assignedAt := now
		bid := batchID
		n.AssignedAt = &assignedAt
		n.AssignedBatchID = &bid
		claimed = append(claimed, *n)
	}
	return claimed, nil
}

// InsertBatch stores the header verbatim, like the real repo: the service is
// responsible for filling CreatedAt.
func (f *fakeDialerRepo) InsertBatch(_ context.Context, b *Batch) error {
	stored := *b
	f.batches[b.ID] = &stored
	return nil
}

func (f *fakeDialerRepo) InsertBatchItems(_ context.Context, items []BatchItem) error {
	for i := range items {
		f.nextID++
		items[i].ID = f.nextID
		item := items[i]
		f.items = append(f.items, &item)
	}
	return nil
}

func (f *fakeDialerRepo) GetItemByBatch(_ context.Context, batchID string, companyID, numberID int64) (*BatchItem, error) {
	for _, item := range f.items {
		if item.BatchID == batchID && item.CompanyID == companyID && item.NumberID == numberID {
			return item, nil
		}
	}
	return nil, apperror.NewNotFound("batch item not found")
}

func (f *fakeDialerRepo) GetNewestItem(_ context.Context, companyID, numberID int64) (*BatchItem, error) {
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].CompanyID == companyID && f.items[i].NumberID == numberID {
			return f.items[i], nil
		}
	}
	return nil, apperror.NewNotFound("batch item not found")
}

func (f *fakeDialerRepo) InsertBatchItem(_ context.Context, item *BatchItem) error {
	f.nextID++
	item.ID = f.nextID
	f.items = append(f.items, item)
	return nil
}

func (f *fakeDialerRepo) UpdateItemReport(_ context.Context, item *BatchItem) error {
	for i, existing := range f.items {
		if existing.ID == item.ID {
			f.items[i] = item
			return nil
		}
	}
	return apperror.NewNotFound("batch item not found")
}

func (f *fakeDialerRepo) ListActiveScenarios(_ context.Context, companyID int64) ([]Scenario, error) {
	var out []Scenario
	for _, sc := range f.scenarios {
		if sc.CompanyID == companyID && sc.Active {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (f *fakeDialerRepo) ListScenarios(_ context.Context, companyID int64) ([]Scenario, error) {
	var out []Scenario
	for _, sc := range f.scenarios {
		if sc.CompanyID == companyID {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (f *fakeDialerRepo) GetScenario(_ context.Context, companyID, id int64) (*Scenario, error) {
	sc, ok := f.scenarios[id]
	if !ok || sc.CompanyID != companyID {
		return nil, apperror.NewNotFound("scenario not found")
	}
	return sc, nil
}

func (f *fakeDialerRepo) CreateScenario(_ context.Context, sc *Scenario) error {
	for _, existing := range f.scenarios {
		if existing.CompanyID == sc.CompanyID && existing.Name == sc.Name {
			return apperror.NewDuplicate("scenario", "name", sc.Name)
		}
	}
	f.nextID++
	sc.ID = f.nextID
	f.scenarios[sc.ID] = sc
	return nil
}

func (f *fakeDialerRepo) UpdateScenario(_ context.Context, sc *Scenario) error {
	f.scenarios[sc.ID] = sc
	return nil
}

func (f *fakeDialerRepo) FindScenarioByName(_ context.Context, companyID int64, name string) (*Scenario, error) {
	for _, sc := range f.scenarios {
		if sc.CompanyID == companyID && sc.Name == name {
			return sc, nil
		}
	}
	return nil, apperror.NewNotFound("scenario not found")
}

func (f *fakeDialerRepo) ListActiveLines(_ context.Context, companyID int64) ([]OutboundLine, error) {
	var out []OutboundLine
	for _, l := range f.lines {
		if l.CompanyID == companyID && l.Active {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeDialerRepo) ListLines(_ context.Context, companyID int64) ([]OutboundLine, error) {
	var out []OutboundLine
	for _, l := range f.lines {
		if l.CompanyID == companyID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeDialerRepo) CountActiveLines(_ context.Context, companyID int64) (int, error) {
	lines, _ := f.ListActiveLines(context.Background(), companyID)
	return len(lines), nil
}

func (f *fakeDialerRepo) FindLineByPhone(_ context.Context, companyID int64, phone string) (*OutboundLine, error) {
	for _, l := range f.lines {
		if l.CompanyID == companyID && l.Phone == phone {
			return l, nil
		}
	}
	return nil, apperror.NewNotFound("line not found")
}

func (f *fakeDialerRepo) GetLine(_ context.Context, companyID, id int64) (*OutboundLine, error) {
	l, ok := f.lines[id]
	if !ok || l.CompanyID != companyID {
		return nil, apperror.NewNotFound("line not found")
	}
	return l, nil
}

func (f *fakeDialerRepo) CreateLine(_ context.Context, line *OutboundLine) error {
	for _, existing := range f.lines {
		if existing.CompanyID == line.CompanyID && existing.Phone == line.Phone {
			return apperror.NewDuplicate("outbound line", "phone_number", line.Phone)
		}
	}
	f.nextID++
	line.ID = f.nextID
	f.lines[line.ID] = line
	return nil
}

func (f *fakeDialerRepo) UpdateLine(_ context.Context, line *OutboundLine) error {
	if _, ok := f.lines[line.ID]; !ok {
		return apperror.NewNotFound("outbound line", line.ID)
	}
	f.lines[line.ID] = line
	return nil
}

type harness struct {
	svc       *Service
	repo      *fakeDialerRepo
	numbers   *fakeNumberRepo
	results   *fakeResultRepo
	schedules *fakeScheduleRepo
	gate      *fakeGate
	charger   *fakeCharger
	agents    *fakeAgents
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	nums := newFakeNumberRepo()
	results := &fakeResultRepo{}

	h := &harness{
		repo:      newFakeDialerRepo(nums, results),
		numbers:   nums,
		results:   results,
		schedules: &fakeScheduleRepo{},
		gate:      &fakeGate{decision: schedule.Decision{Allowed: true, Version: 3}},
		charger:   &fakeCharger{},
		agents:    &fakeAgents{byID: map[int64]*auth.User{}},
	}
	h.svc = NewService(
		h.repo, h.numbers, h.results, h.schedules,
		h.gate, h.charger, h.agents, passthroughTx{},
		Config{
			Timezone:          "Asia/Tehran",
			DefaultBatchSize:  10,
			MaxBatchSize:      100,
			AssignmentTimeout: time.Hour,
			CallCooldown:      3 * 24 * time.Hour,
		},
	)
	return h
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestFetchNextBatchDenied(t *testing.T) {
	h := newHarness(t)
	h.gate.decision = schedule.Decision{Allowed: false, Reason: schedule.ReasonInsufficientFunds, RetryAfterSeconds: 300, Version: 9}

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, nil, nil)
	require.NoError(t, err)

	assert.False(t, resp.CallAllowed)
	assert.Equal(t, schedule.ReasonInsufficientFunds, resp.Reason)
	assert.Equal(t, 300, resp.RetryAfterSeconds)
	assert.Equal(t, int64(9), resp.ScheduleVersion)
	assert.Nil(t, resp.Batch)
	assert.NotNil(t, resp.ActiveScenarios)
	assert.Empty(t, resp.ActiveScenarios)
	assert.Empty(t, h.repo.batches)
}

func TestFetchNextBatchClaims(t *testing.T) {
	h := newHarness(t)
	n1 := h.numbers.add("09121112222")
	n2 := h.numbers.add("09121113333")
	h.repo.lines[1] = &OutboundLine{ID: 1, CompanyID: 7, Phone: "09120000001", DisplayName: "L1", Active: true}
	h.repo.scenarios[2] = &Scenario{ID: 2, CompanyID: 7, Name: "promo", DisplayName: "Promo", Active: true}

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, intPtr(10), nil)
	require.NoError(t, err)

	assert.True(t, resp.CallAllowed)
	require.NotNil(t, resp.Batch)
	assert.Len(t, resp.Batch.BatchID, 32)
	assert.Equal(t, 10, resp.Batch.SizeRequested)
	assert.Equal(t, 2, resp.Batch.SizeReturned)
	assert.Equal(t, []NumberRef{
		{ID: n1.ID, PhoneNumber: n1.Phone},
		{ID: n2.ID, PhoneNumber: n2.Phone},
	}, resp.Batch.Numbers)

	require.NotNil(t, n1.AssignedAt)
	assert.Equal(t, resp.Batch.BatchID, *n1.AssignedBatchID)
	assert.Len(t, h.repo.items, 2)

	stored, ok := h.repo.batches[resp.Batch.BatchID]
	require.True(t, ok)
	assert.Equal(t, 10, stored.RequestedSize)
	assert.Equal(t, 2, stored.ReturnedSize)
	assert.False(t, stored.CreatedAt.IsZero(), "batch header carries its creation instant")

	require.Len(t, resp.ActiveScenarios, 1)
	assert.Equal(t, "promo", resp.ActiveScenarios[0].Name)
	require.Len(t, resp.OutboundLines, 1)
}

func TestFetchNextBatchSizeZero(t *testing.T) {
	h := newHarness(t)
	h.numbers.add("09121112222")

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, intPtr(0), nil)
	require.NoError(t, err)

	assert.True(t, resp.CallAllowed)
	require.NotNil(t, resp.Batch)
	assert.Len(t, resp.Batch.BatchID, 32)
	assert.Zero(t, resp.Batch.SizeReturned)
	assert.Empty(t, resp.Batch.Numbers)
}

func TestFetchNextBatchDefaultSizePerLine(t *testing.T) {
	h := newHarness(t)
	h.repo.lines[1] = &OutboundLine{ID: 1, CompanyID: 7, Phone: "09120000001", Active: true}
	h.repo.lines[2] = &OutboundLine{ID: 2, CompanyID: 7, Phone: "09120000002", Active: true}
	h.repo.lines[3] = &OutboundLine{ID: 3, CompanyID: 7, Phone: "09120000003", Active: false}

	// Two active lines, default 10 per line.
	resp, err := h.svc.FetchNextBatch(context.Background(), 7, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Batch.SizeRequested)

	// The dialer cannot inflate its share: client count clamps downward only.
	resp, err = h.svc.FetchNextBatch(context.Background(), 7, nil, intPtr(5))
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Batch.SizeRequested)

	resp, err = h.svc.FetchNextBatch(context.Background(), 7, nil, intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Batch.SizeRequested)
}

func TestFetchNextBatchClampsToMax(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, intPtr(5000), nil)
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Batch.SizeRequested)
}

func TestFetchNextBatchReclaimsStaleLease(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")
	stale := time.Now().UTC().Add(-2 * time.Hour)
	batchID := "deadbeefdeadbeefdeadbeefdeadbeef"
	n.AssignedAt = &stale
	n.AssignedBatchID = &batchID

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, intPtr(10), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Batch.SizeReturned)
	assert.NotEqual(t, batchID, *n.AssignedBatchID)
}

func TestFetchNextBatchSkipsFreshLease(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")
	fresh := time.Now().UTC().Add(-10 * time.Minute)
	batchID := "deadbeefdeadbeefdeadbeefdeadbeef"
	n.AssignedAt = &fresh
	n.AssignedBatchID = &batchID

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, intPtr(10), nil)
	require.NoError(t, err)
	assert.Zero(t, resp.Batch.SizeReturned)
}

func TestFetchNextBatchHonorsCooldown(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")
	recent := time.Now().UTC().Add(-24 * time.Hour)
	n.LastCalledAt = &recent

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, intPtr(10), nil)
	require.NoError(t, err)
	assert.Zero(t, resp.Batch.SizeReturned, "number called 1 day ago is inside the 3-day cooldown")

	old := time.Now().UTC().Add(-4 * 24 * time.Hour)
	n.LastCalledAt = &old
	resp, err = h.svc.FetchNextBatch(context.Background(), 7, intPtr(10), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Batch.SizeReturned)
}

func TestFetchNextBatchTenantDedup(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")
	h.results.rows = append(h.results.rows, numbers.CallResult{
		ID: 1, NumberID: n.ID, CompanyID: 7, Status: numbers.StatusMissed, AttemptedAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
	})

	resp, err := h.svc.FetchNextBatch(context.Background(), 7, intPtr(10), nil)
	require.NoError(t, err)
	assert.Zero(t, resp.Batch.SizeReturned, "a company never gets the same number twice")

	resp, err = h.svc.FetchNextBatch(context.Background(), 8, intPtr(10), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Batch.SizeReturned, "other companies still may claim it")
}

func TestReportResultHappyPath(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")
	assignedAt := time.Now().UTC()
	batchID := "feedfacefeedfacefeedfacefeedface"
	n.AssignedAt = &assignedAt
	n.AssignedBatchID = &batchID
	h.repo.items = append(h.repo.items, &BatchItem{ID: 50, BatchID: batchID, CompanyID: 7, NumberID: n.ID, AssignedAt: assignedAt})
	h.repo.scenarios[2] = &Scenario{ID: 2, CompanyID: 7, Name: "promo", Active: true}

	attemptedAt := time.Date(2026, time.March, 1, 10, 5, 0, 0, time.UTC)
	ack, err := h.svc.ReportResult(context.Background(), 7, &Report{
		NumberID:    &n.ID,
		PhoneNumber: "09121112222",
		ScenarioID:  int64Ptr(2),
		Status:      numbers.StatusConnected,
		AttemptedAt: attemptedAt,
		BatchID:     &batchID,
	})
	require.NoError(t, err)

	assert.Equal(t, n.ID, ack.ID)
	assert.Equal(t, numbers.GlobalActive, ack.GlobalStatus)
	assert.Equal(t, "09121112222", ack.PhoneNumber)

	require.NotNil(t, n.LastCalledAt)
	assert.True(t, n.LastCalledAt.Equal(attemptedAt))
	assert.Nil(t, n.AssignedAt, "lease cleared on report")
	assert.Nil(t, n.AssignedBatchID)

	require.Len(t, h.results.rows, 1)
	r := h.results.rows[0]
	assert.Equal(t, numbers.DirectionOutbound, r.Direction)
	assert.Equal(t, numbers.StatusConnected, r.Status)

	item := h.repo.items[0]
	require.NotNil(t, item.ReportedAt)
	require.NotNil(t, item.ReportStatus)
	assert.Equal(t, "CONNECTED", *item.ReportStatus)
	require.NotNil(t, item.ReportCallResultID)
	assert.Equal(t, r.ID, *item.ReportCallResultID)

	require.Len(t, h.charger.calls, 1, "CONNECTED is billable")
	assert.Nil(t, h.charger.calls[0], "scenario without cost override defers to the company default")
}

func TestReportResultScenarioCostOverride(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")
	h.repo.scenarios[2] = &Scenario{ID: 2, CompanyID: 7, Name: "promo", CostPerConnected: int64Ptr(200), Active: true}

	_, err := h.svc.ReportResult(context.Background(), 7, &Report{
		NumberID:    &n.ID,
		PhoneNumber: "09121112222",
		ScenarioID:  int64Ptr(2),
		Status:      numbers.StatusConnected,
		AttemptedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.Len(t, h.charger.calls, 1)
	require.NotNil(t, h.charger.calls[0])
	assert.Equal(t, int64(200), *h.charger.calls[0])
}

func TestReportResultNonBillableNotCharged(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")

	_, err := h.svc.ReportResult(context.Background(), 7, &Report{
		NumberID:    &n.ID,
		PhoneNumber: "09121112222",
		Status:      numbers.StatusBusy,
		AttemptedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Empty(t, h.charger.calls)
}

func TestReportResultAutoCreatesInbound(t *testing.T) {
	h := newHarness(t)

	ack, err := h.svc.ReportResult(context.Background(), 7, &Report{
		PhoneNumber: "+989351234567",
		Status:      numbers.StatusInboundCall,
		AttemptedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Equal(t, "09351234567", ack.PhoneNumber)
	require.Len(t, h.results.rows, 1)
	assert.Equal(t, numbers.DirectionInbound, h.results.rows[0].Direction)

	// A trace row is created even though the number was never claimed.
	require.Len(t, h.repo.items, 1)
	assert.NotNil(t, h.repo.items[0].ReportedAt)
}

func TestReportResultIdMismatchFallsBackToPhone(t *testing.T) {
	h := newHarness(t)
	other := h.numbers.add("09121119999")
	target := h.numbers.add("09121112222")

	ack, err := h.svc.ReportResult(context.Background(), 7, &Report{
		NumberID:    &other.ID,
		PhoneNumber: "09121112222",
		Status:      numbers.StatusMissed,
		AttemptedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, target.ID, ack.ID)
	assert.Nil(t, other.LastCalledAt)
}

func TestReportResultPowerOffPoisonsGlobally(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")

	ack, err := h.svc.ReportResult(context.Background(), 7, &Report{
		NumberID:    &n.ID,
		PhoneNumber: "09121112222",
		Status:      numbers.StatusPowerOff,
		AttemptedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, numbers.GlobalPowerOff, ack.GlobalStatus)
	assert.Equal(t, numbers.GlobalPowerOff, n.GlobalStatus)
	assert.Empty(t, h.charger.calls)
}

func TestReportResultCallAllowedToggle(t *testing.T) {
	h := newHarness(t)
	n := h.numbers.add("09121112222")
	stopped := false

	_, err := h.svc.ReportResult(context.Background(), 7, &Report{
		NumberID:    &n.ID,
		PhoneNumber: "09121112222",
		Status:      numbers.StatusMissed,
		AttemptedAt: time.Now().UTC(),
		CallAllowed: &stopped,
	})
	require.NoError(t, err)

	cfg := h.schedules.cfg
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.DisabledByDialer)
	assert.Equal(t, int64(2), cfg.Version)

	resumed := true
	_, err = h.svc.ReportResult(context.Background(), 7, &Report{
		NumberID:    &n.ID,
		PhoneNumber: "09121112222",
		Status:      numbers.StatusMissed,
		AttemptedAt: time.Now().UTC(),
		CallAllowed: &resumed,
	})
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.DisabledByDialer)
	assert.Equal(t, int64(3), cfg.Version)
}

func TestReportResultValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.ReportResult(context.Background(), 7, &Report{
		PhoneNumber: "12345",
		Status:      numbers.StatusMissed,
		AttemptedAt: time.Now().UTC(),
	})
	assert.Error(t, err)

	_, err = h.svc.ReportResult(context.Background(), 7, &Report{
		PhoneNumber: "09121112222",
		Status:      numbers.CallStatus("EXPLODED"),
		AttemptedAt: time.Now().UTC(),
	})
	assert.Error(t, err)

	_, err = h.svc.ReportResult(context.Background(), 7, &Report{
		PhoneNumber: "09121112222",
		Status:      numbers.StatusMissed,
	})
	assert.Error(t, err)
}

func TestRegisterScenariosUpsert(t *testing.T) {
	h := newHarness(t)

	counts, err := h.svc.RegisterScenarios(context.Background(), 7, []ScenarioInfo{
		{Name: "promo", DisplayName: "Promo"},
		{Name: "survey", DisplayName: ""},
		{Name: "  ", DisplayName: "blank"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Created)
	assert.Equal(t, 1, counts.Skipped)

	counts, err = h.svc.RegisterScenarios(context.Background(), 7, []ScenarioInfo{
		{Name: "promo", DisplayName: "Promo v2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Updated)

	sc, err := h.repo.FindScenarioByName(context.Background(), 7, "promo")
	require.NoError(t, err)
	assert.Equal(t, "Promo v2", sc.DisplayName)
}

func TestRegisterOutboundLinesUpsert(t *testing.T) {
	h := newHarness(t)

	counts, err := h.svc.RegisterOutboundLines(context.Background(), 7, []LineInfo{
		{PhoneNumber: "+989120000001", DisplayName: "L1"},
		{PhoneNumber: "badphone"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Created)
	assert.Equal(t, 1, counts.Skipped)

	line, err := h.repo.FindLineByPhone(context.Background(), 7, "09120000001")
	require.NoError(t, err)
	assert.Equal(t, "L1", line.DisplayName)

	counts, err = h.svc.RegisterOutboundLines(context.Background(), 7, []LineInfo{
		{PhoneNumber: "09120000001", DisplayName: "L1 renamed"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Updated)

	line, err = h.repo.FindLineByPhone(context.Background(), 7, "09120000001")
	require.NoError(t, err)
	assert.Equal(t, "L1 renamed", line.DisplayName)
}
