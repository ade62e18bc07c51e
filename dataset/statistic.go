package dataset

import "strings"

// Statistic is a derived, time-independent result computed over a whole
// modality or recording: an aggregate image, a PCA basis, a distance
// matrix. Unlike a Modality it carries no time vector.
type Statistic struct {
	name       string
	kind       ModalityKind
	parentName string
	params     ParamMap
	data       []float64
	shape      []int
}

// NewStatistic validates and builds a Statistic. The shape must account
// for every value in data.
func NewStatistic(
	name string,
	kind ModalityKind,
	parentName string,
	params ParamMap,
	data []float64,
	shape []int,
) (*Statistic, error) {
	if strings.TrimSpace(name) == "" {
		return nil, constructionErrorf("Statistic", "empty name")
	}
	size := 1
	for i, dim := range shape {
		if dim <= 0 {
			return nil, constructionErrorf(
				"Statistic", "%s: shape dimension %d is %d, must be positive", name, i, dim)
		}
		size *= dim
	}
	if len(shape) == 0 || size != len(data) {
		return nil, constructionErrorf(
			"Statistic", "%s: shape %v does not match %d values", name, shape, len(data))
	}
	return &Statistic{
		name:       name,
		kind:       kind,
		parentName: parentName,
		params:     params.Clone(),
		data:       data,
		shape:      shape,
	}, nil
}

// Name returns the statistic name, unique within its Recording.
func (s *Statistic) Name() string { return s.name }

// Kind returns the producing algorithm's discriminator.
func (s *Statistic) Kind() ModalityKind { return s.kind }

// ParentName returns the name of the modality the statistic was computed
// from.
func (s *Statistic) ParentName() string { return s.parentName }

// Params returns the parameter record the statistic was computed with.
func (s *Statistic) Params() ParamMap { return s.params }

// Data returns the flat value buffer.
func (s *Statistic) Data() []float64 { return s.data }

// Shape returns the value dimensions.
func (s *Statistic) Shape() []int { return s.shape }
