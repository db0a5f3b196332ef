package spinglass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	advantageRanges  = AnnealRanges{Standard: TimeRange{Min: 0.5, Max: 2000}, Fast: TimeRange{Min: 0.005, Max: 0.05}}
	advantage2Ranges = AnnealRanges{Standard: TimeRange{Min: 1, Max: 1000}, Fast: TimeRange{Min: 0.005, Max: 0.03}}
)

func TestAnnealRanges_Intersect(t *testing.T) {
	shared := advantageRanges.Intersect(advantage2Ranges)
	assert.Equal(t, TimeRange{Min: 1, Max: 1000}, shared.Standard)
	assert.Equal(t, TimeRange{Min: 0.005, Max: 0.03}, shared.Fast)
}

func TestAnnealSpec_Validate(t *testing.T) {
	shared := advantageRanges.Intersect(advantage2Ranges)
	tests := []struct {
		name  string
		spec  AnnealSpec
		field string
	}{
		{"standard inside", AnnealSpec{Type: AnnealStandard, Time: 20}, ""},
		{"standard at bounds", AnnealSpec{Type: AnnealStandard, Time: 1000}, ""},
		{"standard above shared max", AnnealSpec{Type: AnnealStandard, Time: 1500}, "anneal_time"},
		{"standard below shared min", AnnealSpec{Type: AnnealStandard, Time: 0.5}, "anneal_time"},
		{"fast inside", AnnealSpec{Type: AnnealFast, Time: 0.01}, ""},
		{"fast rejects standard time", AnnealSpec{Type: AnnealFast, Time: 20}, "anneal_time"},
		{"unknown type", AnnealSpec{Type: "reverse", Time: 20}, "anneal_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate(shared)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAnnealSpec_ValidateMessageNamesRange(t *testing.T) {
	err := AnnealSpec{Type: AnnealStandard, Time: 5000}.Validate(advantageRanges)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0.5 and 2000")
}

func TestAnnealSpec_DisjointRanges(t *testing.T) {
	a := AnnealRanges{Standard: TimeRange{Min: 1, Max: 5}}
	b := AnnealRanges{Standard: TimeRange{Min: 10, Max: 20}}
	err := AnnealSpec{Type: AnnealStandard, Time: 3}.Validate(a.Intersect(b))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "anneal_type", ve.Field)
}
