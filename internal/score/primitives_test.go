package score

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlopeScore(t *testing.T) {
	tests := []struct {
		name     string
		result   float64
		min, max float64
		expected float64
	}{
		{"at min", 0, 0, 4, 1},
		{"below min", -1, 0, 4, 1},
		{"at max", 4, 0, 4, 0},
		{"above max", 10, 0, 4, 0},
		{"midpoint", 2, 0, 4, 0.5},
		{"quarter", 1, 0, 4, 0.75},
		{"shifted range", 75, 50, 100, 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SlopeScore(tc.result, tc.min, tc.max)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}

	t.Run("min equal to max", func(t *testing.T) {
		_, err := SlopeScore(1, 4, 4)
		require.Error(t, err)
	})

	t.Run("min above max", func(t *testing.T) {
		_, err := SlopeScore(1, 5, 4)
		require.Error(t, err)
	})
}

func TestFacetScore(t *testing.T) {
	wildcards := []string{"Unspecified"}

	t.Run("exact match", func(t *testing.T) {
		assert.Equal(t, 1.0, FacetScore("Jordanian Military", []string{"Jordanian Military"}, wildcards))
	})

	t.Run("match in ambiguous set", func(t *testing.T) {
		assert.Equal(t, 1.0, FacetScore("Hamas", []string{"PIJ", "Hamas"}, wildcards))
	})

	t.Run("wildcard gsr value accepts any warning", func(t *testing.T) {
		assert.Equal(t, 1.0, FacetScore("Hamas", []string{"Unspecified"}, wildcards))
	})

	t.Run("wildcard among ambiguous gsr values accepts any warning", func(t *testing.T) {
		assert.Equal(t, 1.0, FacetScore("Hamas", []string{"PIJ", "Unspecified"}, wildcards))
	})

	t.Run("wildcard warning gets no free match", func(t *testing.T) {
		assert.Equal(t, 0.0, FacetScore("Unspecified", []string{"Jordanian Military"}, wildcards))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Equal(t, 0.0, FacetScore("Hamas", []string{"Jordanian Military"}, wildcards))
	})

	t.Run("empty gsr values", func(t *testing.T) {
		assert.Equal(t, 0.0, FacetScore("Hamas", nil, wildcards))
	})
}

func TestDateDiff(t *testing.T) {
	warn := time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

	t.Run("event after warning is positive", func(t *testing.T) {
		gsr := time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 3, DateDiff(warn, gsr))
	})

	t.Run("event before warning is negative", func(t *testing.T) {
		gsr := time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, -2, DateDiff(warn, gsr))
	})

	t.Run("same day", func(t *testing.T) {
		assert.Equal(t, 0, DateDiff(warn, warn))
	})
}

func TestDateScore(t *testing.T) {
	tests := []struct {
		name     string
		diff     int
		maxDiff  float64
		expected float64
	}{
		{"same day", 0, 4, 1},
		{"one day off", 1, 4, 0.75},
		{"one day early", -1, 4, 0.75},
		{"at limit", 4, 4, 0},
		{"beyond limit", 6, 4, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DateScore(tc.diff, tc.maxDiff)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestF1(t *testing.T) {
	t.Run("perfect", func(t *testing.T) {
		got, err := F1(1, 1)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got)
	})

	t.Run("both zero", func(t *testing.T) {
		got, err := F1(0, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	})

	t.Run("harmonic mean", func(t *testing.T) {
		got, err := F1(0.5, 1)
		require.NoError(t, err)
		assert.InDelta(t, 2.0/3.0, got, 1e-9)
	})

	t.Run("precision out of range", func(t *testing.T) {
		_, err := F1(1.5, 0.5)
		require.Error(t, err)
	})

	t.Run("negative recall", func(t *testing.T) {
		_, err := F1(0.5, -0.1)
		require.Error(t, err)
	})
}

func TestCombinationMats(t *testing.T) {
	rows, cols := CombinationMats([]string{"a", "b"}, []string{"x", "y", "z"})

	wantRows := [][]string{{"a", "a", "a"}, {"b", "b", "b"}}
	wantCols := [][]string{{"x", "y", "z"}, {"x", "y", "z"}}
	if diff := cmp.Diff(wantRows, rows); diff != "" {
		t.Errorf("row matrix mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantCols, cols); diff != "" {
		t.Errorf("col matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexMats(t *testing.T) {
	rows, cols := IndexMats(2, 3)

	assert.Equal(t, [][]int{{0, 0, 0}, {1, 1, 1}}, rows)
	assert.Equal(t, [][]int{{0, 1, 2}, {0, 1, 2}}, cols)
}
