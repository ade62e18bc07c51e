package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/artlab/artikit/dataset"
)

// AggregateImage reduces a modality over its full time axis into a single
// time-independent image: the per-position mean, median or standard
// deviation across all frames. The result is a Statistic, not a time
// series.
func AggregateImage(
	parent *dataset.ModalityData,
	params AggregateImageParams,
) ([]float64, []int, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, fmt.Errorf("aggregate image: %w", err)
	}
	frames := parent.Frames()
	if frames == 0 {
		return nil, nil, &dataset.DataInsufficientError{Needed: 1, Got: 0}
	}

	size := parent.FrameSize()
	out := make([]float64, size)
	column := make([]float64, frames)

	for pos := 0; pos < size; pos++ {
		for t := 0; t < frames; t++ {
			column[t] = parent.Samples[t*size+pos]
		}
		switch params.Method {
		case AggregateMean:
			out[pos] = stat.Mean(column, nil)
		case AggregateMedian:
			sorted := append([]float64(nil), column...)
			sort.Float64s(sorted)
			out[pos] = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		case AggregateStd:
			out[pos] = stat.StdDev(column, nil)
		}
	}

	shape := parent.Shape[1:]
	if len(shape) == 0 {
		shape = []int{1}
	}
	outShape := make([]int, len(shape))
	copy(outShape, shape)
	return out, outShape, nil
}

// PCAComponents computes a principal component decomposition of the
// frames: each frame is one observation, each sample position one
// variable. Returns the first NumComponents component vectors as a
// [components, frame size] array. Like AggregateImage this consumes the
// whole parent array at once and yields a Statistic.
func PCAComponents(
	parent *dataset.ModalityData,
	params PCAParams,
) ([]float64, []int, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, fmt.Errorf("pca: %w", err)
	}
	frames := parent.Frames()
	if frames < 2 {
		return nil, nil, &dataset.DataInsufficientError{Needed: 2, Got: frames}
	}

	size := parent.FrameSize()
	observations := mat.NewDense(frames, size, parent.Samples)

	var pc stat.PC
	if ok := pc.PrincipalComponents(observations, nil); !ok {
		return nil, nil, fmt.Errorf("pca: decomposition failed for %d x %d data", frames, size)
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)

	_, available := vectors.Dims()
	keep := params.NumComponents
	if keep > available {
		keep = available
	}

	out := make([]float64, keep*size)
	for comp := 0; comp < keep; comp++ {
		for pos := 0; pos < size; pos++ {
			out[comp*size+pos] = vectors.At(pos, comp)
		}
	}
	return out, []int{keep, size}, nil
}
