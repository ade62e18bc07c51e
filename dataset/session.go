package dataset

import "strings"

// SessionMeta carries session-level metadata.
type SessionMeta struct {
	Path       string `yaml:"path"`
	Datasource string `yaml:"datasource"`
}

// Session is an ordered group of recordings sharing participants and
// context. It references participants by id; the Dataset owns them.
type Session struct {
	name       string
	meta       SessionMeta
	recordings []*Recording

	participantOrder []string
	participantIDs   map[string]struct{}
}

// NewSession builds an empty session.
func NewSession(name string, meta SessionMeta) (*Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, constructionErrorf("Session", "empty name")
	}
	return &Session{
		name:           name,
		meta:           meta,
		participantIDs: make(map[string]struct{}),
	}, nil
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// Meta returns the session metadata.
func (s *Session) Meta() SessionMeta { return s.meta }

// AddRecording appends a recording and registers its participant
// reference.
func (s *Session) AddRecording(r *Recording) {
	s.recordings = append(s.recordings, r)
	id := r.Meta().ParticipantID
	if _, seen := s.participantIDs[id]; !seen {
		s.participantIDs[id] = struct{}{}
		s.participantOrder = append(s.participantOrder, id)
	}
}

// Recording looks up a recording by basename.
func (s *Session) Recording(basename string) (*Recording, bool) {
	for _, r := range s.recordings {
		if r.Basename() == basename {
			return r, true
		}
	}
	return nil, false
}

// Recordings returns the recordings in order.
func (s *Session) Recordings() []*Recording {
	out := make([]*Recording, len(s.recordings))
	copy(out, s.recordings)
	return out
}

// Len reports the number of recordings.
func (s *Session) Len() int { return len(s.recordings) }

// ParticipantIDs returns the referenced participant ids in first-seen
// order.
func (s *Session) ParticipantIDs() []string {
	out := make([]string, len(s.participantOrder))
	copy(out, s.participantOrder)
	return out
}
