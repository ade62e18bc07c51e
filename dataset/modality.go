package dataset

import (
	"maps"
	"strings"
)

// ModalityKind discriminates the variants of Modality. Recorded kinds come
// from import adapters; derived kinds are produced by the derivation
// engine from a parent modality.
type ModalityKind string

const (
	KindAudio      ModalityKind = "audio"
	KindUltrasound ModalityKind = "ultrasound"
	KindVideo      ModalityKind = "video"
	KindSplines    ModalityKind = "splines"

	KindPixelDifference         ModalityKind = "pixel_difference"
	KindScanlinePixelDifference ModalityKind = "scanline_pixel_difference"
	KindOpticalFlow             ModalityKind = "optical_flow"
	KindPCA                     ModalityKind = "principal_component_analysis"
	KindAggregateImage          ModalityKind = "aggregate_image"
)

// Derived reports whether the kind is produced by the derivation engine.
func (k ModalityKind) Derived() bool {
	switch k {
	case KindPixelDifference, KindScanlinePixelDifference, KindOpticalFlow,
		KindPCA, KindAggregateImage:
		return true
	}
	return false
}

func (k ModalityKind) String() string { return string(k) }

// ParamMap is the serialized form of an algorithm parameter record. All
// values are strings so that a parameter set written to a metadata file and
// read back compares field-wise equal to the in-memory original.
type ParamMap map[string]string

// Equal reports field-wise equality. No fuzzy matching: a single differing
// or missing field makes the records unequal.
func (p ParamMap) Equal(other ParamMap) bool {
	return maps.Equal(p, other)
}

// Clone returns an independent copy.
func (p ParamMap) Clone() ParamMap {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// ModalityMeta is the schema-specific metadata record of a Modality. For
// recorded modalities the Recorded* fields name the original source files;
// for derived modalities ParentName and Params identify the artifact.
type ModalityMeta struct {
	Kind       ModalityKind `yaml:"kind"`
	ParentName string       `yaml:"parent_name,omitempty"`
	Params     ParamMap     `yaml:"params,omitempty"`

	RecordedDataFile string `yaml:"recorded_data_file,omitempty"`
	RecordedMetaFile string `yaml:"recorded_meta_file,omitempty"`

	// Names of the saved artikit files, filled in by the persistence layer.
	DataFile string `yaml:"data_file,omitempty"`
	MetaFile string `yaml:"meta_file,omitempty"`
}

// Modality is a single type of recorded or derived data attached to a
// Recording. Data may be nil when the payload is deferred (not yet read
// from disk) or has been released to free memory; metadata and annotations
// survive either way so the payload can be reloaded or recomputed.
type Modality struct {
	name        string
	meta        ModalityMeta
	data        *ModalityData
	annotations *TierSet
}

// NewModality builds a modality. Name must be non-empty; a derived kind
// requires a parent name, a recorded kind must not carry one.
func NewModality(name string, meta ModalityMeta, data *ModalityData) (*Modality, error) {
	if strings.TrimSpace(name) == "" {
		return nil, constructionErrorf("Modality", "empty name")
	}
	if meta.Kind == "" {
		return nil, constructionErrorf("Modality", "%s: missing kind", name)
	}
	if meta.Kind.Derived() && meta.ParentName == "" {
		return nil, constructionErrorf(
			"Modality", "%s: derived kind %s without a parent name", name, meta.Kind)
	}
	if !meta.Kind.Derived() && meta.ParentName != "" {
		return nil, constructionErrorf(
			"Modality", "%s: recorded kind %s with a parent name", name, meta.Kind)
	}
	return &Modality{
		name:        name,
		meta:        meta,
		data:        data,
		annotations: NewTierSet(),
	}, nil
}

// Name returns the modality name, unique within its Recording.
func (m *Modality) Name() string { return m.name }

// Kind returns the variant discriminator.
func (m *Modality) Kind() ModalityKind { return m.meta.Kind }

// Derived reports whether this modality was computed from a parent.
func (m *Modality) Derived() bool { return m.meta.Kind.Derived() }

// ParentName returns the lookup key of the parent modality within the same
// Recording. Empty for recorded modalities. The parent is resolved by name
// on demand so parent and child lifetimes stay independent.
func (m *Modality) ParentName() string { return m.meta.ParentName }

// Params returns the parameter record the modality was computed with.
func (m *Modality) Params() ParamMap { return m.meta.Params }

// Meta returns a copy of the metadata record.
func (m *Modality) Meta() ModalityMeta {
	meta := m.meta
	meta.Params = m.meta.Params.Clone()
	return meta
}

// SetSavedFiles records the artikit file names after a save.
func (m *Modality) SetSavedFiles(dataFile, metaFile string) {
	m.meta.DataFile = dataFile
	m.meta.MetaFile = metaFile
}

// Data returns the payload, nil when deferred or released.
func (m *Modality) Data() *ModalityData { return m.data }

// HasData reports whether the payload is resident in memory.
func (m *Modality) HasData() bool { return m.data != nil }

// SetData installs a loaded or computed payload.
func (m *Modality) SetData(data *ModalityData) {
	m.data = data
}

// ReleaseDataMemory drops the payload so the array memory can be
// reclaimed. Metadata, annotations and the parent reference are kept, so
// the modality can be reloaded from disk or recomputed.
func (m *Modality) ReleaseDataMemory() {
	m.data = nil
}

// Annotations returns the per-modality annotation tiers.
func (m *Modality) Annotations() *TierSet { return m.annotations }
