package metrics

import (
	"errors"
	"fmt"

	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
	"github.com/artlab/artikit/storage"
)

// Request names one derivation: which modality to derive from, with which
// parameters. The algorithm is implied by the parameter record's type.
type Request struct {
	ParentName string
	Params     Params
}

// Engine computes derived modalities and statistics on demand. Before
// computing it consults the persistence layer: a saved artifact with the
// same parent, algorithm and field-wise equal parameters is loaded instead
// of recomputed. Configuration is threaded in explicitly; the engine holds
// no global state.
type Engine struct {
	store    *storage.Store
	log      logging.Logger
	warnings *logging.Warnings
}

// NewEngine creates an engine. A nil store disables the on-disk cache.
func NewEngine(store *storage.Store, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Engine{
		store:    store,
		log:      logger,
		warnings: logging.NewWarnings(logger),
	}
}

// Warnings returns the recoverable conditions recorded so far, keyed by
// recording basename.
func (e *Engine) Warnings() *logging.Warnings { return e.warnings }

// Derive computes a time-series derived modality and adds it to the
// recording. If the recording already holds the artifact, or the
// persistence layer has a cached copy, no computation happens.
//
// A DataInsufficientError is recorded as a per-recording warning and
// returned; the derived modality is simply absent for that recording.
func (e *Engine) Derive(
	rec *dataset.Recording,
	parentName string,
	params Params,
) (*dataset.Modality, error) {
	if !params.Algorithm().TimeSeries() {
		return nil, fmt.Errorf("algorithm %s yields a statistic, use DeriveStatistic", params.Algorithm())
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", params.Algorithm(), err)
	}

	name := DerivedName(params, parentName)
	if existing, ok := rec.Modality(name); ok {
		return existing, nil
	}

	if e.store != nil {
		data, hit := e.store.CachedDerived(
			rec.Meta().Path, rec.Basename(), name, params.ParamMap())
		if hit {
			return e.addDerived(rec, name, parentName, params, data)
		}
	}

	parent, err := e.resolveParent(rec, parentName)
	if err != nil {
		return nil, err
	}

	e.log.Info("computing derived modality", logging.Fields{
		"recording": rec.Basename(),
		"artifact":  name,
	})

	var data *dataset.ModalityData
	switch p := params.(type) {
	case PixelDifferenceParams:
		data, err = PixelDifference(parent.Data(), p)
	case OpticalFlowParams:
		data, err = OpticalFlow(parent.Data(), p)
	default:
		err = fmt.Errorf("no computation registered for algorithm %s", params.Algorithm())
	}
	if err != nil {
		var insufficient *dataset.DataInsufficientError
		if errors.As(err, &insufficient) {
			insufficient.Modality = parentName
			e.warnings.Add(rec.Basename(), fmt.Sprintf("not computing %q", name), err)
		}
		return nil, err
	}

	return e.addDerived(rec, name, parentName, params, data)
}

// DeriveStatistic computes a time-independent result and adds it to the
// recording.
func (e *Engine) DeriveStatistic(
	rec *dataset.Recording,
	parentName string,
	params Params,
) (*dataset.Statistic, error) {
	if params.Algorithm().TimeSeries() {
		return nil, fmt.Errorf("algorithm %s yields a time series, use Derive", params.Algorithm())
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", params.Algorithm(), err)
	}

	name := DerivedName(params, parentName)
	if existing, ok := rec.Statistic(name); ok {
		return existing, nil
	}

	parent, err := e.resolveParent(rec, parentName)
	if err != nil {
		return nil, err
	}

	var values []float64
	var shape []int
	switch p := params.(type) {
	case AggregateImageParams:
		values, shape, err = AggregateImage(parent.Data(), p)
	case PCAParams:
		values, shape, err = PCAComponents(parent.Data(), p)
	default:
		err = fmt.Errorf("no computation registered for algorithm %s", params.Algorithm())
	}
	if err != nil {
		var insufficient *dataset.DataInsufficientError
		if errors.As(err, &insufficient) {
			insufficient.Modality = parentName
			e.warnings.Add(rec.Basename(), fmt.Sprintf("not computing %q", name), err)
		}
		return nil, err
	}

	st, err := dataset.NewStatistic(
		name, params.Algorithm().Kind(), parentName, params.ParamMap(), values, shape)
	if err != nil {
		return nil, err
	}
	if err := rec.AddStatistic(st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeriveAll runs a batch of derivations against one recording. Recoverable
// failures are recorded as warnings and the batch continues. When
// releaseDataMemory is set, each parent's raw array is dropped as soon as
// the last pending request that needs it has run.
//
// Returns the names of the artifacts present after the batch.
func (e *Engine) DeriveAll(
	rec *dataset.Recording,
	requests []Request,
	releaseDataMemory bool,
) []string {
	pending := make(map[string]int, len(requests))
	for _, req := range requests {
		pending[req.ParentName]++
	}

	var derived []string
	for _, req := range requests {
		var name string
		var err error
		if req.Params.Algorithm().TimeSeries() {
			var m *dataset.Modality
			m, err = e.Derive(rec, req.ParentName, req.Params)
			if m != nil {
				name = m.Name()
			}
		} else {
			var st *dataset.Statistic
			st, err = e.DeriveStatistic(rec, req.ParentName, req.Params)
			if st != nil {
				name = st.Name()
			}
		}
		if err != nil {
			var insufficient *dataset.DataInsufficientError
			if !errors.As(err, &insufficient) {
				// DataInsufficient is already on the warning list.
				e.warnings.Add(rec.Basename(),
					fmt.Sprintf("derivation from %q failed", req.ParentName), err)
			}
		} else {
			derived = append(derived, name)
		}

		pending[req.ParentName]--
		if releaseDataMemory && pending[req.ParentName] == 0 {
			if parent, ok := rec.Modality(req.ParentName); ok {
				parent.ReleaseDataMemory()
			}
		}
	}
	return derived
}

// PreloadAll eagerly runs the configured derivations for every recording
// in the dataset, the preload behavior at dataset-open time. Excluded
// recordings are skipped.
func (e *Engine) PreloadAll(
	ds *dataset.Dataset,
	requests []Request,
	releaseDataMemory bool,
) {
	for _, rec := range ds.Recordings() {
		if rec.Excluded() {
			continue
		}
		e.DeriveAll(rec, requests, releaseDataMemory)
	}
}

// resolveParent returns the parent modality with a resident payload,
// reloading a deferred payload from disk when a store is available.
func (e *Engine) resolveParent(
	rec *dataset.Recording,
	parentName string,
) (*dataset.Modality, error) {
	parent, ok := rec.Modality(parentName)
	if !ok {
		return nil, fmt.Errorf(
			"recording %s has no modality %q", rec.Basename(), parentName)
	}
	if !parent.HasData() && e.store != nil {
		if err := e.store.LoadModalityData(rec.Meta().Path, rec.Basename(), parent); err != nil {
			return nil, fmt.Errorf("reloading parent %q: %w", parentName, err)
		}
	}
	if !parent.HasData() {
		return nil, fmt.Errorf(
			"parent modality %q of recording %s has no loaded data", parentName, rec.Basename())
	}
	return parent, nil
}

// addDerived builds the derived modality and registers it.
func (e *Engine) addDerived(
	rec *dataset.Recording,
	name, parentName string,
	params Params,
	data *dataset.ModalityData,
) (*dataset.Modality, error) {
	m, err := dataset.NewModality(name, dataset.ModalityMeta{
		Kind:       params.Algorithm().Kind(),
		ParentName: parentName,
		Params:     params.ParamMap(),
	}, data)
	if err != nil {
		return nil, err
	}
	if err := rec.AddModality(m); err != nil {
		return nil, err
	}
	return m, nil
}
