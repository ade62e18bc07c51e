package dataset

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecordingMeta identifies one recording event: who was recorded, when,
// with what prompt, and where the source files live.
type RecordingMeta struct {
	ID              string    `yaml:"id"`
	Basename        string    `yaml:"basename"`
	Path            string    `yaml:"path"`
	ParticipantID   string    `yaml:"participant_id"`
	TimeOfRecording time.Time `yaml:"time_of_recording"`
	Prompt          string    `yaml:"prompt"`
}

// Recording owns all modalities and metadata captured from one participant
// at one point in time. Modalities are kept behind accessor operations;
// insertion order is preserved for iteration and display.
type Recording struct {
	meta RecordingMeta

	modalityOrder []string
	modalities    map[string]*Modality

	statisticOrder []string
	statistics     map[string]*Statistic

	tiers    *TierSet
	excluded bool
}

// NewRecording validates and builds an empty Recording. Basename and
// participant id are required. A missing ID gets a generated one.
func NewRecording(meta RecordingMeta) (*Recording, error) {
	if strings.TrimSpace(meta.Basename) == "" {
		return nil, constructionErrorf("Recording", "empty basename")
	}
	if strings.TrimSpace(meta.ParticipantID) == "" {
		return nil, constructionErrorf("Recording", "%s: empty participant id", meta.Basename)
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	return &Recording{
		meta:       meta,
		modalities: make(map[string]*Modality),
		statistics: make(map[string]*Statistic),
		tiers:      NewTierSet(),
	}, nil
}

// Meta returns the recording metadata.
func (r *Recording) Meta() RecordingMeta { return r.meta }

// Basename returns the recording's on-disk base name.
func (r *Recording) Basename() string { return r.meta.Basename }

// AddModality registers a modality under its name. Names must be unique
// within the recording.
func (r *Recording) AddModality(m *Modality) error {
	if _, exists := r.modalities[m.Name()]; exists {
		return constructionErrorf(
			"Recording", "%s: modality %q already present", r.meta.Basename, m.Name())
	}
	r.modalities[m.Name()] = m
	r.modalityOrder = append(r.modalityOrder, m.Name())
	return nil
}

// Modality looks a modality up by name. Absence is a normal result, not an
// error.
func (r *Recording) Modality(name string) (*Modality, bool) {
	m, ok := r.modalities[name]
	return m, ok
}

// ModalityNames returns modality names in insertion order.
func (r *Recording) ModalityNames() []string {
	out := make([]string, len(r.modalityOrder))
	copy(out, r.modalityOrder)
	return out
}

// AddStatistic registers a time-independent derived result.
func (r *Recording) AddStatistic(s *Statistic) error {
	if _, exists := r.statistics[s.Name()]; exists {
		return constructionErrorf(
			"Recording", "%s: statistic %q already present", r.meta.Basename, s.Name())
	}
	r.statistics[s.Name()] = s
	r.statisticOrder = append(r.statisticOrder, s.Name())
	return nil
}

// Statistic looks a statistic up by name.
func (r *Recording) Statistic(name string) (*Statistic, bool) {
	s, ok := r.statistics[name]
	return s, ok
}

// StatisticNames returns statistic names in insertion order.
func (r *Recording) StatisticNames() []string {
	out := make([]string, len(r.statisticOrder))
	copy(out, r.statisticOrder)
	return out
}

// Tiers returns the recording-level annotation structure, aligned to the
// recording's audio. The library preserves it verbatim across save/load.
func (r *Recording) Tiers() *TierSet { return r.tiers }

// Exclude marks the recording as excluded from processing.
func (r *Recording) Exclude() { r.excluded = true }

// Excluded reports the exclusion flag.
func (r *Recording) Excluded() bool { return r.excluded }

// ReleaseDataMemory drops every modality payload. Metadata stays, so the
// payloads remain reloadable or recomputable.
func (r *Recording) ReleaseDataMemory() {
	for _, name := range r.modalityOrder {
		r.modalities[name].ReleaseDataMemory()
	}
}
