package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artlab/artikit/dataset"
)

func TestAggregateImageMean(t *testing.T) {
	parent := imageSequence(t,
		[][]float64{
			{0, 4, 8, 2},
			{2, 4, 0, 2},
			{4, 4, 4, 2},
		},
		[]int{3, 2, 2})

	values, shape, err := AggregateImage(parent, AggregateImageParams{Method: AggregateMean})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, shape)
	assert.Equal(t, []float64{2, 4, 4, 2}, values)
}

func TestAggregateImageMedianAndStd(t *testing.T) {
	parent := imageSequence(t,
		[][]float64{{1}, {9}, {2}},
		[]int{3, 1})

	median, shape, err := AggregateImage(parent, AggregateImageParams{Method: AggregateMedian})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, shape)
	assert.Equal(t, 2.0, median[0])

	std, _, err := AggregateImage(parent, AggregateImageParams{Method: AggregateStd})
	require.NoError(t, err)
	// Sample standard deviation of (1, 9, 2).
	assert.InDelta(t, math.Sqrt(19.0), std[0], 1e-12)
}

func TestAggregateImageRejectsBadMethod(t *testing.T) {
	parent := imageSequence(t, [][]float64{{1}}, []int{1, 1})
	_, _, err := AggregateImage(parent, AggregateImageParams{Method: "mode"})
	require.Error(t, err)
}

func TestPCAComponents(t *testing.T) {
	// Frames vary along a single direction (1, 2) in sample space, so the
	// first principal component must be parallel to it.
	direction := []float64{1, 2}
	frames := make([][]float64, 6)
	for i := range frames {
		scale := float64(i) - 2.5
		frames[i] = []float64{scale * direction[0], scale * direction[1]}
	}
	parent := imageSequence(t, frames, []int{6, 2})

	values, shape, err := PCAComponents(parent, PCAParams{NumComponents: 1})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, shape)

	norm := math.Hypot(values[0], values[1])
	require.Greater(t, norm, 0.0)
	cosine := (values[0]*direction[0] + values[1]*direction[1]) /
		(norm * math.Hypot(direction[0], direction[1]))
	assert.InDelta(t, 1.0, math.Abs(cosine), 1e-9)
}

func TestPCAClampsComponentCount(t *testing.T) {
	parent := imageSequence(t,
		[][]float64{{1, 0}, {0, 1}, {1, 1}},
		[]int{3, 2})

	values, shape, err := PCAComponents(parent, PCAParams{NumComponents: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, shape[0], "cannot return more components than variables")
	assert.Len(t, values, shape[0]*shape[1])
}

func TestPCAInsufficientData(t *testing.T) {
	parent := imageSequence(t, [][]float64{{1, 2}}, []int{1, 2})
	_, _, err := PCAComponents(parent, PCAParams{NumComponents: 1})
	var insufficient *dataset.DataInsufficientError
	require.True(t, errors.As(err, &insufficient))
}
