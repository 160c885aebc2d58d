package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fency/outreach-pipeline/internal/model"
)

func TestRunVerify_ProcessesBatchThenIdles(t *testing.T) {
	st := &mockStore{}
	st.allowStageRuns(model.StageVerify)
	mv := newFakeVerifier("millionverifier", map[string]model.Verdict{"a@x.com": good})
	nb := newFakeVerifier("neverbounce", nil)

	batch := []model.Owner{
		{PersonKey: "K1", Status: model.StatusPendingVerification, OriginalEmail: "a@x.com"},
		{PersonKey: "K2", Status: model.StatusPendingVerification},
	}
	selects := model.StageVerify.Selects()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return(batch, nil).Once()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return([]model.Owner{}, nil)
	st.On("UpdateOwnerVerification", mock.Anything, "K1", mock.Anything).Return(nil)
	st.On("UpdateOwnerStatus", mock.Anything, "K2", model.StatusFailedVerification).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, rec := newTestPipeline(testConfig(), Deps{Store: st, MillionVerifier: mv, NeverBounce: nb})
	rec.onSleep = cancel

	require.NoError(t, p.RunVerify(ctx))

	assert.Equal(t, []time.Duration{300 * time.Second}, rec.durations())
	assert.Equal(t, []string{"a@x.com"}, mv.Calls())
	st.AssertExpectations(t)
	st.AssertCalled(t, "FinishStageRun", mock.Anything, mock.MatchedBy(func(r *model.StageRun) bool {
		return r.Processed == 2 && r.Failed == 1
	}))
}

func TestRunEnrich_ReadErrorBacksOffAndRetries(t *testing.T) {
	st := &mockStore{}
	st.allowStageRuns(model.StageEnrich)

	selects := model.StageEnrich.Selects()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return(nil, errors.New("connection refused")).Once()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return([]model.Owner{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, rec := newTestPipeline(testConfig(), Deps{Store: st, PDL: &mockPDLClient{}})
	var sleeps atomic.Int32
	rec.onSleep = func() {
		if sleeps.Add(1) == 2 {
			cancel()
		}
	}

	require.NoError(t, p.RunEnrich(ctx))
	assert.Equal(t, []time.Duration{60 * time.Second, 300 * time.Second}, rec.durations())
	st.AssertNumberOfCalls(t, "ListOwnersByStatus", 2)
}

func TestRunEnrich_StoreWriteErrorDoesNotStopBatch(t *testing.T) {
	st := &mockStore{}
	st.allowStageRuns(model.StageEnrich)
	client := &mockPDLClient{}

	batch := []model.Owner{
		{PersonKey: "K1", FirstName: "A", Status: model.StatusPendingEnrichment},
		{PersonKey: "K2", FirstName: "B", Status: model.StatusPendingEnrichment},
	}
	selects := model.StageEnrich.Selects()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return(batch, nil).Once()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return([]model.Owner{}, nil)
	client.On("Enrich", mock.Anything, mock.Anything).Return(nil, errors.New("pdl: unexpected status 500"))
	st.On("UpdateOwnerStatus", mock.Anything, "K1", model.StatusFailedEnrichment).Return(errors.New("db down"))
	st.On("UpdateOwnerStatus", mock.Anything, "K2", model.StatusFailedEnrichment).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, rec := newTestPipeline(testConfig(), Deps{Store: st, PDL: client})
	rec.onSleep = cancel

	require.NoError(t, p.RunEnrich(ctx))
	client.AssertNumberOfCalls(t, "Enrich", 2)
	st.AssertExpectations(t)
}

func TestRunWorker_ConcurrentPool(t *testing.T) {
	st := &mockStore{}
	st.allowStageRuns(model.StageVerify)

	cfg := testConfig()
	cfg.Worker.Concurrency = 4

	batch := make([]model.Owner, 10)
	for i := range batch {
		batch[i] = model.Owner{PersonKey: string(rune('A' + i)), Status: model.StatusPendingVerification}
	}
	selects := model.StageVerify.Selects()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return(batch, nil).Once()
	st.On("ListOwnersByStatus", mock.Anything, selects, 50).Return([]model.Owner{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, rec := newTestPipeline(cfg, Deps{Store: st})
	rec.onSleep = cancel

	var handled, inFlight, maxInFlight atomic.Int32
	handle := func(_ context.Context, _ model.Owner) (model.ProcessingStatus, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		handled.Add(1)
		return model.StatusComplete, nil
	}

	require.NoError(t, p.runWorker(ctx, model.StageVerify, 0, handle))
	assert.Equal(t, int32(10), handled.Load())
	assert.LessOrEqual(t, maxInFlight.Load(), int32(4))
}

func TestRunWorker_StopsWhenCancelled(t *testing.T) {
	st := &mockStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := newTestPipeline(testConfig(), Deps{Store: st})
	require.NoError(t, p.RunVerify(ctx))
	st.AssertNotCalled(t, "ListOwnersByStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewPacer(t *testing.T) {
	ctx := context.Background()

	off := newPacer(0)
	for range 5 {
		require.NoError(t, off.Wait(ctx))
	}

	paced := newPacer(time.Hour)
	require.NoError(t, paced.Wait(ctx), "first call is not delayed")

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, paced.Wait(short), "second call waits for the pace interval")
}
