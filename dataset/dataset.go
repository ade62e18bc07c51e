package dataset

import "strings"

// Participant is one recorded speaker: an identity plus free-form
// metadata. Owned by the Dataset, referenced by Sessions.
type Participant struct {
	ID   string            `yaml:"id"`
	Meta map[string]string `yaml:"meta,omitempty"`
}

// Dataset is the root owner of participants and sessions, and the
// persistence unit. A loaded dataset is exclusively owned by the single
// process using it; there is no multi-writer support.
type Dataset struct {
	name     string
	rootPath string

	participantOrder []string
	participants     map[string]*Participant

	sessions []*Session
}

// NewDataset builds an empty dataset rooted at rootPath.
func NewDataset(name, rootPath string) (*Dataset, error) {
	if strings.TrimSpace(name) == "" {
		return nil, constructionErrorf("Dataset", "empty name")
	}
	return &Dataset{
		name:         name,
		rootPath:     rootPath,
		participants: make(map[string]*Participant),
	}, nil
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// RootPath returns the on-disk root directory.
func (d *Dataset) RootPath() string { return d.rootPath }

// AddParticipant registers a participant under its id.
func (d *Dataset) AddParticipant(p *Participant) error {
	if strings.TrimSpace(p.ID) == "" {
		return constructionErrorf("Participant", "empty id")
	}
	if _, exists := d.participants[p.ID]; exists {
		return constructionErrorf("Dataset", "%s: participant %q already present", d.name, p.ID)
	}
	d.participants[p.ID] = p
	d.participantOrder = append(d.participantOrder, p.ID)
	return nil
}

// Participant looks a participant up by id.
func (d *Dataset) Participant(id string) (*Participant, bool) {
	p, ok := d.participants[id]
	return p, ok
}

// ParticipantIDs returns participant ids in insertion order.
func (d *Dataset) ParticipantIDs() []string {
	out := make([]string, len(d.participantOrder))
	copy(out, d.participantOrder)
	return out
}

// AddSession appends a session. Every recording in the session must
// reference a participant already registered in the dataset.
func (d *Dataset) AddSession(s *Session) error {
	for _, id := range s.ParticipantIDs() {
		if _, ok := d.participants[id]; !ok {
			return constructionErrorf(
				"Dataset", "%s: session %s references unknown participant %q",
				d.name, s.Name(), id)
		}
	}
	d.sessions = append(d.sessions, s)
	return nil
}

// Sessions returns the sessions in order.
func (d *Dataset) Sessions() []*Session {
	out := make([]*Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// Recordings returns every recording across all sessions, in session and
// recording order.
func (d *Dataset) Recordings() []*Recording {
	var out []*Recording
	for _, session := range d.sessions {
		out = append(out, session.Recordings()...)
	}
	return out
}
