package compare_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anneal-bench/anneal-bench/internal/sapi"
	"github.com/anneal-bench/anneal-bench/internal/sapi/sapitest"
	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
)

func TestScenario_Seed42UniformAgainstEmulator(t *testing.T) {
	// GIVEN the built-in emulator behind an HTTP server
	srv, err := sapitest.NewServer(sapitest.DefaultFixture())
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := sapi.NewClient(sapi.Config{Endpoint: ts.URL, PollInterval: time.Millisecond})
	provider := sapi.NewProvider(client)
	runner := compare.NewRunner(provider, sapi.NewSampler(provider), provider)

	// WHEN seed 42, uniform weights, precision 1, standard 20µs anneal is run
	seed := int64(42)
	res, err := runner.Run(context.Background(), compare.RunConfig{
		Advantage:  "Advantage_system4.1",
		Advantage2: "Advantage2_system1.2",
		Weights:    spinglass.WeightSpec{Distribution: spinglass.DistributionUniform, Precision: 1, Seed: &seed},
		Anneal:     spinglass.AnnealSpec{Type: spinglass.AnnealStandard, Time: 20},
	})
	require.NoError(t, err)

	// THEN both systems return 1000 reads and the best energy is reported
	cmp := res.Comparison
	for _, sys := range cmp.Systems {
		assert.Equal(t, 1000, sys.Samples.NumReads(), sys.Solver)
		assert.Equal(t, 1000, sys.Summary.NumReads, sys.Solver)
		assert.GreaterOrEqual(t, sys.Summary.Min, cmp.BestEnergy)
	}
	assert.Less(t, cmp.BestEnergy, 0.0)
	assert.Equal(t, int64(42), cmp.Problem.Seed)
	assert.Equal(t, 1.0, cmp.Problem.Precision)

	// both submissions carried identical sampling parameters
	subs := srv.Submissions()
	require.Len(t, subs, 2)
	assert.Equal(t, subs[0].Params, subs[1].Params)
	assert.Equal(t, 1000.0, subs[0].Params["num_reads"])
}

func TestScenario_SameSeedSameProblemTwice(t *testing.T) {
	srv, err := sapitest.NewServer(sapitest.DefaultFixture())
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := sapi.NewClient(sapi.Config{Endpoint: ts.URL, PollInterval: time.Millisecond})
	provider := sapi.NewProvider(client)
	runner := compare.NewRunner(provider, sapi.NewSampler(provider), provider)

	seed := int64(7)
	cfg := compare.RunConfig{
		Advantage:  "Advantage_system6.4",
		Advantage2: "Advantage2_system1.2",
		Weights:    spinglass.WeightSpec{Distribution: spinglass.DistributionPowerLaw, Precision: 8, Seed: &seed},
		Anneal:     spinglass.AnnealSpec{Type: spinglass.AnnealStandard, Time: 5},
	}
	first, err := runner.Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), cfg)
	require.NoError(t, err)

	// the emulator seeds from the problem, so identical problems give identical answers
	assert.Equal(t, first.Comparison.BestEnergy, second.Comparison.BestEnergy)
	assert.Equal(t, first.Comparison.Histogram, second.Comparison.Histogram)
}
