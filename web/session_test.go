package web

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
)

func TestSession_StartCancel(t *testing.T) {
	s := &Session{}
	assert.Equal(t, StateIdle, s.Status().State)

	started := make(chan struct{})
	id, done := s.Start(context.Background(), func(ctx context.Context) (*compare.Result, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	assert.Equal(t, StateRunning, s.Status().State)
	assert.Equal(t, id, s.Status().RunID)

	assert.True(t, s.Cancel())
	<-done
	st := s.Status()
	assert.Equal(t, StateCancelled, st.State)
	assert.ErrorIs(t, st.Err(), context.Canceled)
	assert.False(t, s.Cancel(), "nothing left to cancel")
}

func TestSession_NewRunSupersedesInFlightRun(t *testing.T) {
	s := &Session{}
	stale := &compare.Result{Elapsed: time.Minute}
	started := make(chan struct{})
	release := make(chan struct{})
	var firstCtx context.Context

	// GIVEN a run in flight
	first, firstDone := s.Start(context.Background(), func(ctx context.Context) (*compare.Result, error) {
		firstCtx = ctx
		close(started)
		<-release
		return stale, nil
	})
	<-started

	// WHEN a second run starts
	fresh := &compare.Result{Elapsed: time.Second}
	second, secondDone := s.Start(context.Background(), func(context.Context) (*compare.Result, error) { return fresh, nil })
	<-secondDone

	// THEN the first run's context is cancelled and its late result is ignored
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
	close(release)
	<-firstDone

	st := s.Status()
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, st.RunID)
	assert.Equal(t, StateDone, st.State)
	assert.Same(t, fresh, st.Result)
}

func TestSession_RunningStatusHidesPreviousResult(t *testing.T) {
	s := &Session{}
	first := &compare.Result{Comparison: &spinglass.ComparisonResult{BestEnergy: -42}}
	_, done := s.Start(context.Background(), func(context.Context) (*compare.Result, error) { return first, nil })
	<-done
	require.Same(t, first, s.Status().Result)

	// GIVEN a second run that has not finished
	started := make(chan struct{})
	release := make(chan struct{})
	second, done := s.Start(context.Background(), func(context.Context) (*compare.Result, error) {
		close(started)
		<-release
		return &compare.Result{Comparison: &spinglass.ComparisonResult{BestEnergy: -7}}, nil
	})
	<-started

	// THEN its status carries no result at all
	st := s.Status()
	assert.Equal(t, StateRunning, st.State)
	assert.Equal(t, second, st.RunID)
	assert.Nil(t, st.Result)

	close(release)
	<-done
	assert.Equal(t, -7.0, s.Status().Result.Comparison.BestEnergy)
}

func TestSession_FailureRecordsError(t *testing.T) {
	s := &Session{}
	want := &compare.Result{Elapsed: time.Second}
	_, done := s.Start(context.Background(), func(context.Context) (*compare.Result, error) { return want, nil })
	<-done
	assert.Equal(t, StateDone, s.Status().State)
	assert.Same(t, want, s.Status().Result)

	boom := errors.New("boom")
	_, done = s.Start(context.Background(), func(context.Context) (*compare.Result, error) { return nil, boom })
	<-done
	st := s.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "boom", st.Error)
	assert.Equal(t, 2, st.RunID)
}

func TestSessionStore_PrunesIdleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st := newSessionStore(testDefaults)
	st.now = func() time.Time { return now }

	old := st.create()
	now = now.Add(sessionTTL + time.Minute)
	fresh := st.create()

	_, ok := st.get(old.ID)
	assert.False(t, ok)
	_, ok = st.get(fresh.ID)
	assert.True(t, ok)
}

func TestParseSettings(t *testing.T) {
	base := testDefaults()

	tests := []struct {
		name    string
		form    url.Values
		check   func(t *testing.T, cfg compare.RunConfig)
		wantErr string
	}{
		{
			name:  "empty form keeps base",
			form:  url.Values{},
			check: func(t *testing.T, cfg compare.RunConfig) { assert.Equal(t, base, cfg) },
		},
		{
			name: "all fields",
			form: url.Values{
				"form": {settingsForm}, "advantage": {"Advantage_system6.4"}, "advantage2": {"Advantage2_system1.2"},
				"distribution": {"uniform"}, "precision": {"64"}, "seed": {"42"}, "biases": {"on"},
				"anneal_type": {"fast"}, "anneal_time": {"0.25"},
			},
			check: func(t *testing.T, cfg compare.RunConfig) {
				assert.Equal(t, "Advantage_system6.4", cfg.Advantage)
				assert.Equal(t, spinglass.DistributionUniform, cfg.Weights.Distribution)
				assert.Equal(t, 64.0, cfg.Weights.Precision)
				require.NotNil(t, cfg.Weights.Seed)
				assert.Equal(t, int64(42), *cfg.Weights.Seed)
				assert.True(t, cfg.Weights.Biases)
				assert.Equal(t, spinglass.AnnealFast, cfg.Anneal.Type)
				assert.Equal(t, 0.25, cfg.Anneal.Time)
			},
		},
		{
			name:  "blank seed means random",
			form:  url.Values{"seed": {" "}},
			check: func(t *testing.T, cfg compare.RunConfig) { assert.Nil(t, cfg.Weights.Seed) },
		},
		{
			name:  "unchecked biases on full form",
			form:  url.Values{"form": {settingsForm}},
			check: func(t *testing.T, cfg compare.RunConfig) { assert.False(t, cfg.Weights.Biases) },
		},
		{name: "bad precision", form: url.Values{"precision": {"lots"}}, wantErr: "precision"},
		{name: "bad seed", form: url.Values{"seed": {"4.2"}}, wantErr: "seed"},
		{name: "bad anneal type", form: url.Values{"anneal_type": {"slow"}}, wantErr: "anneal_type"},
		{name: "bad anneal time", form: url.Values{"anneal_time": {"soon"}}, wantErr: "anneal_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseSettings(tt.form, base)
			if tt.wantErr != "" {
				require.Error(t, err)
				var ve *spinglass.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantErr, ve.Field)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
