package dataset

// ModalityData is the raw numeric payload of a Modality: a flat sample
// buffer with an explicit shape, the matching time vector and the nominal
// sampling rate.
//
// Axis order for Shape is [time, coordinate axes and datatypes, data
// points] and further structure. Stereo audio is [time, channels] or just
// [time] for mono. Ultrasound video is [time, scanline, pixel]. Splines are
// [time, x-y-confidence, spline point].
type ModalityData struct {
	Samples      []float64
	Shape        []int
	TimeVector   []float64
	SamplingRate float64
}

// NewModalityData validates and builds a ModalityData. The first dimension
// of shape must equal len(timeVector), the shape must account for every
// sample, the time vector must be strictly increasing and the sampling
// rate positive. Any violation is a ConstructionError.
func NewModalityData(
	samples []float64,
	shape []int,
	timeVector []float64,
	samplingRate float64,
) (*ModalityData, error) {
	if len(shape) == 0 {
		return nil, constructionErrorf("ModalityData", "empty shape")
	}
	size := 1
	for i, dim := range shape {
		if dim <= 0 {
			return nil, constructionErrorf(
				"ModalityData", "shape dimension %d is %d, must be positive", i, dim)
		}
		size *= dim
	}
	if size != len(samples) {
		return nil, constructionErrorf(
			"ModalityData", "shape %v implies %d samples, got %d", shape, size, len(samples))
	}
	if len(timeVector) != shape[0] {
		return nil, constructionErrorf(
			"ModalityData", "time vector length %d does not match time dimension %d",
			len(timeVector), shape[0])
	}
	for i := 1; i < len(timeVector); i++ {
		if timeVector[i] <= timeVector[i-1] {
			return nil, constructionErrorf(
				"ModalityData", "time vector not strictly increasing at index %d", i)
		}
	}
	if samplingRate <= 0 {
		return nil, constructionErrorf(
			"ModalityData", "sampling rate %g, must be positive", samplingRate)
	}

	return &ModalityData{
		Samples:      samples,
		Shape:        shape,
		TimeVector:   timeVector,
		SamplingRate: samplingRate,
	}, nil
}

// Frames returns the length of the time dimension.
func (d *ModalityData) Frames() int {
	return d.Shape[0]
}

// FrameSize returns the number of samples in one time step.
func (d *ModalityData) FrameSize() int {
	size := 1
	for _, dim := range d.Shape[1:] {
		size *= dim
	}
	return size
}

// Frame returns the samples of one time step as a view into the buffer.
func (d *ModalityData) Frame(i int) []float64 {
	size := d.FrameSize()
	return d.Samples[i*size : (i+1)*size]
}
