package metrics

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/artlab/artikit/dataset"
)

// OpticalFlow estimates the global displacement between frames separated
// by params.Timestep using phase correlation: the normalized cross-power
// spectrum of a frame pair has an inverse transform peaked at the
// translation between them.
//
// References:
// - Kuglin, C.D., Hines, D.C. (1975). "The Phase Correlation Image Alignment Method"
//
// Output per time step is the displacement magnitude, or the (dx, dy)
// vector when params.VectorOutput is set. Time alignment follows pixel
// difference: the output time vector is the parent's from the Timestep-th
// sample onward.
func OpticalFlow(
	parent *dataset.ModalityData,
	params OpticalFlowParams,
) (*dataset.ModalityData, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("optical flow: %w", err)
	}
	if len(parent.Shape) != 3 {
		return nil, fmt.Errorf(
			"optical flow needs [time, rows, cols] data, got shape %v", parent.Shape)
	}

	frames := parent.Frames()
	if frames < params.Timestep+1 {
		return nil, &dataset.DataInsufficientError{
			Needed: params.Timestep + 1,
			Got:    frames,
		}
	}

	rows := parent.Shape[1]
	cols := parent.Shape[2]
	step := params.Timestep
	steps := frames - step

	var out []float64
	var shape []int
	if params.VectorOutput {
		out = make([]float64, steps*2)
		shape = []int{steps, 2}
	} else {
		out = make([]float64, steps)
		shape = []int{steps}
	}

	spectra := make([][][]complex128, frames)
	spectrum := func(t int) [][]complex128 {
		if spectra[t] == nil {
			spectra[t] = fft.FFT2Real(frameMatrix(parent, t, rows, cols))
		}
		return spectra[t]
	}

	for t := 0; t < steps; t++ {
		dx, dy := phaseCorrelate(spectrum(t), spectrum(t+step), rows, cols)
		if params.VectorOutput {
			out[t*2] = dx
			out[t*2+1] = dy
		} else {
			out[t] = math.Hypot(dx, dy)
		}
		spectra[t] = nil // this frame's spectrum is no longer needed
	}

	timeVector := make([]float64, steps)
	copy(timeVector, parent.TimeVector[step:])

	return dataset.NewModalityData(out, shape, timeVector, parent.SamplingRate)
}

// frameMatrix copies one frame into the row-major [][]float64 layout the
// FFT expects.
func frameMatrix(data *dataset.ModalityData, t, rows, cols int) [][]float64 {
	frame := data.Frame(t)
	m := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		m[r] = frame[r*cols : (r+1)*cols]
	}
	return m
}

// phaseCorrelate locates the correlation peak between two frame spectra
// and returns the displacement as (dx, dy), unwrapped so that shifts past
// the midpoint are reported as negative.
func phaseCorrelate(a, b [][]complex128, rows, cols int) (float64, float64) {
	cross := make([][]complex128, rows)
	for r := 0; r < rows; r++ {
		cross[r] = make([]complex128, cols)
		for c := 0; c < cols; c++ {
			v := a[r][c] * cmplx.Conj(b[r][c])
			mag := cmplx.Abs(v)
			if mag > 0 {
				v /= complex(mag, 0)
			}
			cross[r][c] = v
		}
	}

	surface := fft.IFFT2(cross)

	peakR, peakC := 0, 0
	peak := math.Inf(-1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := real(surface[r][c]); v > peak {
				peak = v
				peakR, peakC = r, c
			}
		}
	}

	dy := float64(peakR)
	if peakR > rows/2 {
		dy -= float64(rows)
	}
	dx := float64(peakC)
	if peakC > cols/2 {
		dx -= float64(cols)
	}
	return dx, dy
}
