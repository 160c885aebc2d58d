package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/fency/outreach-pipeline/internal/model"
	"github.com/fency/outreach-pipeline/pkg/pdl"
	"github.com/fency/outreach-pipeline/pkg/propertyradar"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertProperty(ctx context.Context, p *model.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockStore) UpsertOwners(ctx context.Context, owners []model.Owner) (int64, error) {
	args := m.Called(ctx, owners)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListOwnersByStatus(ctx context.Context, statuses []model.ProcessingStatus, limit int) ([]model.Owner, error) {
	args := m.Called(ctx, statuses, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Owner), args.Error(1)
}

func (m *mockStore) UpdateOwnerStatus(ctx context.Context, personKey string, status model.ProcessingStatus) error {
	args := m.Called(ctx, personKey, status)
	return args.Error(0)
}

func (m *mockStore) UpdateOwnerEnrichment(ctx context.Context, personKey string, status model.ProcessingStatus, emails []string) error {
	args := m.Called(ctx, personKey, status, emails)
	return args.Error(0)
}

func (m *mockStore) UpdateOwnerVerification(ctx context.Context, personKey string, outcome model.VerificationOutcome) error {
	args := m.Called(ctx, personKey, outcome)
	return args.Error(0)
}

func (m *mockStore) CreateStageRun(ctx context.Context, stage model.Stage) (*model.StageRun, error) {
	args := m.Called(ctx, stage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StageRun), args.Error(1)
}

func (m *mockStore) FinishStageRun(ctx context.Context, run *model.StageRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// allowStageRuns lets a test ignore stage-run bookkeeping.
func (m *mockStore) allowStageRuns(stage model.Stage) {
	m.On("CreateStageRun", mock.Anything, stage).
		Return(&model.StageRun{ID: "run-1", Stage: stage}, nil).Maybe()
	m.On("FinishStageRun", mock.Anything, mock.Anything).Return(nil).Maybe()
}

// --- PropertyRadar Mock ---

type mockRadarClient struct {
	mock.Mock
}

func (m *mockRadarClient) Lists(ctx context.Context) ([]propertyradar.List, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]propertyradar.List), args.Error(1)
}

func (m *mockRadarClient) ListItems(ctx context.Context, listID string, start, limit int) ([]propertyradar.ListItem, error) {
	args := m.Called(ctx, listID, start, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]propertyradar.ListItem), args.Error(1)
}

func (m *mockRadarClient) GetProperty(ctx context.Context, radarID string) (*propertyradar.Property, error) {
	args := m.Called(ctx, radarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*propertyradar.Property), args.Error(1)
}

func (m *mockRadarClient) GetPersons(ctx context.Context, radarID string) ([]propertyradar.Person, error) {
	args := m.Called(ctx, radarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]propertyradar.Person), args.Error(1)
}

// --- PDL Mock ---

type mockPDLClient struct {
	mock.Mock
}

func (m *mockPDLClient) Enrich(ctx context.Context, params pdl.EnrichParams) (*pdl.EnrichResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pdl.EnrichResult), args.Error(1)
}

// --- Verifier Fake ---

// fakeVerifier answers from a fixed table and records every email asked.
// Unlisted emails are uncertain.
type fakeVerifier struct {
	name    string
	results map[string]model.VerificationResult

	mu    sync.Mutex
	calls []string
}

func newFakeVerifier(name string, verdicts map[string]model.Verdict) *fakeVerifier {
	results := make(map[string]model.VerificationResult, len(verdicts))
	for email, v := range verdicts {
		results[email] = model.VerificationResult{Success: true, Status: string(v), Verdict: v}
	}
	return &fakeVerifier{name: name, results: results}
}

func (f *fakeVerifier) Name() string { return f.name }

func (f *fakeVerifier) Verify(_ context.Context, email string) model.VerificationResult {
	f.mu.Lock()
	f.calls = append(f.calls, email)
	f.mu.Unlock()
	if r, ok := f.results[email]; ok {
		return r
	}
	return model.VerificationResult{Success: true, Status: "unknown_status", Verdict: model.VerdictUncertain}
}

func (f *fakeVerifier) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// cancelingVerifier cancels the run's context while answering for one
// address, as a shutdown arriving mid-call would.
type cancelingVerifier struct {
	*fakeVerifier
	on     string
	cancel context.CancelFunc
}

func (c *cancelingVerifier) Verify(ctx context.Context, email string) model.VerificationResult {
	if email == c.on {
		c.cancel()
	}
	return c.fakeVerifier.Verify(ctx, email)
}

// sequenceVerifier returns its results in call order, whatever the address.
type sequenceVerifier struct {
	*fakeVerifier
	seq []model.VerificationResult
}

func (s *sequenceVerifier) Verify(ctx context.Context, email string) model.VerificationResult {
	n := len(s.fakeVerifier.Calls())
	s.fakeVerifier.Verify(ctx, email)
	return s.seq[n]
}
