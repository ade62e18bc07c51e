package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/artlab/artikit/dataset"
)

// PixelDifference computes the frame-to-frame change signal of an image
// sequence (or any sampled modality): for each pair of frames separated by
// params.Timestep, the elementwise differences are aggregated over all
// non-time axes into one scalar.
//
// Aggregation per norm:
//   - l1: mean of absolute differences
//   - l2: root mean square of differences
//
// The output time vector is the parent's from the Timestep-th sample
// onward, so the output is Timestep samples shorter than the input. The
// first Timestep samples have no defined output and are dropped.
func PixelDifference(
	parent *dataset.ModalityData,
	params PixelDifferenceParams,
) (*dataset.ModalityData, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("pixel difference: %w", err)
	}
	if params.Scanline {
		return scanlinePixelDifference(parent, params)
	}

	source := parent
	if params.UseInterpolatedData {
		source = InterpolateFrames(parent, 2)
	}

	frames := source.Frames()
	if frames < params.Timestep+1 {
		return nil, &dataset.DataInsufficientError{
			Needed: params.Timestep + 1,
			Got:    frames,
		}
	}

	lo, hi := maskBounds(source, params)

	step := params.Timestep
	out := make([]float64, frames-step)
	for t := 0; t < frames-step; t++ {
		a := source.Frame(t)[lo:hi]
		b := source.Frame(t + step)[lo:hi]
		n := float64(hi - lo)
		switch params.Norm {
		case NormL1:
			out[t] = floats.Distance(a, b, 1) / n
		default: // NormL2, validated above
			out[t] = floats.Distance(a, b, 2) / math.Sqrt(n)
		}
	}

	timeVector := make([]float64, frames-step)
	copy(timeVector, source.TimeVector[step:])

	return dataset.NewModalityData(
		out, []int{frames - step}, timeVector, source.SamplingRate)
}

// scanlinePixelDifference keeps the change signal separate per scanline
// (the first non-time axis) instead of collapsing the whole frame.
func scanlinePixelDifference(
	parent *dataset.ModalityData,
	params PixelDifferenceParams,
) (*dataset.ModalityData, error) {
	if len(parent.Shape) < 3 {
		return nil, fmt.Errorf(
			"scanline pixel difference needs [time, scanline, pixel] data, got shape %v",
			parent.Shape)
	}

	frames := parent.Frames()
	if frames < params.Timestep+1 {
		return nil, &dataset.DataInsufficientError{
			Needed: params.Timestep + 1,
			Got:    frames,
		}
	}

	step := params.Timestep
	scanlines := parent.Shape[1]
	perLine := parent.FrameSize() / scanlines

	out := make([]float64, (frames-step)*scanlines)
	for t := 0; t < frames-step; t++ {
		a := parent.Frame(t)
		b := parent.Frame(t + step)
		for line := 0; line < scanlines; line++ {
			la := a[line*perLine : (line+1)*perLine]
			lb := b[line*perLine : (line+1)*perLine]
			switch params.Norm {
			case NormL1:
				out[t*scanlines+line] = floats.Distance(la, lb, 1) / float64(perLine)
			default:
				out[t*scanlines+line] = floats.Distance(la, lb, 2) / math.Sqrt(float64(perLine))
			}
		}
	}

	timeVector := make([]float64, frames-step)
	copy(timeVector, parent.TimeVector[step:])

	return dataset.NewModalityData(
		out, []int{frames - step, scanlines}, timeVector, parent.SamplingRate)
}

// maskBounds resolves the image mask to a half-open sample range within a
// frame. Masking only makes sense for data with at least one spatial axis;
// 1-D modalities always use the whole frame.
func maskBounds(data *dataset.ModalityData, params PixelDifferenceParams) (int, int) {
	size := data.FrameSize()
	if !params.MaskImages || len(data.Shape) < 2 {
		return 0, size
	}
	lines := data.Shape[1]
	perLine := size / lines
	half := lines / 2
	switch params.Mask {
	case MaskTop:
		return 0, half * perLine
	case MaskBottom:
		return half * perLine, size
	default:
		return 0, size
	}
}

// Intensity computes the whole-frame intensity time series: the sum of all
// samples in each frame. Cheap enough to compute alongside pixel
// difference while the parent array is resident.
func Intensity(parent *dataset.ModalityData) (*dataset.ModalityData, error) {
	frames := parent.Frames()
	if frames == 0 {
		return nil, &dataset.DataInsufficientError{Needed: 1, Got: 0}
	}
	out := make([]float64, frames)
	for t := 0; t < frames; t++ {
		out[t] = floats.Sum(parent.Frame(t))
	}
	timeVector := make([]float64, frames)
	copy(timeVector, parent.TimeVector)
	return dataset.NewModalityData(out, []int{frames}, timeVector, parent.SamplingRate)
}
