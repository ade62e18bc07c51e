package metrics

import "github.com/artlab/artikit/dataset"

// InterpolateFrames resamples the innermost axis of every frame by the
// given integer factor using Catmull-Rom interpolation. Raw ultrasound is
// stored as a coarse fan of scanlines; differencing interpolated frames
// reduces the grid artifacts of the raw representation.
//
// Modalities with no spatial axis are returned unchanged.
func InterpolateFrames(data *dataset.ModalityData, factor int) *dataset.ModalityData {
	if factor <= 1 || len(data.Shape) < 2 {
		return data
	}

	rowLen := data.Shape[len(data.Shape)-1]
	rows := len(data.Samples) / rowLen
	outRowLen := rowLen * factor

	out := make([]float64, rows*outRowLen)
	for r := 0; r < rows; r++ {
		row := data.Samples[r*rowLen : (r+1)*rowLen]
		dst := out[r*outRowLen : (r+1)*outRowLen]
		for i := range dst {
			dst[i] = interpolateAt(row, float64(i)/float64(factor))
		}
	}

	shape := make([]int, len(data.Shape))
	copy(shape, data.Shape)
	shape[len(shape)-1] = outRowLen

	timeVector := make([]float64, len(data.TimeVector))
	copy(timeVector, data.TimeVector)

	return &dataset.ModalityData{
		Samples:      out,
		Shape:        shape,
		TimeVector:   timeVector,
		SamplingRate: data.SamplingRate,
	}
}

// interpolateAt evaluates a Catmull-Rom spline through the row at a
// fractional index, falling back to linear interpolation near the edges
// and for short rows.
func interpolateAt(row []float64, index float64) float64 {
	if len(row) == 0 {
		return 0.0
	}
	if index <= 0 {
		return row[0]
	}
	if index >= float64(len(row)-1) {
		return row[len(row)-1]
	}

	i := int(index)
	frac := index - float64(i)

	if len(row) < 4 || i < 1 || i >= len(row)-2 {
		return row[i] + frac*(row[i+1]-row[i])
	}

	y0 := row[i-1]
	y1 := row[i]
	y2 := row[i+1]
	y3 := row[i+2]

	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*frac*frac*frac + a1*frac*frac + a2*frac + a3
}
