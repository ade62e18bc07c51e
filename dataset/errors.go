package dataset

import "fmt"

// ConstructionError reports an invariant violation while constructing an
// entity. It is never downgraded to a warning: the caller of the
// constructing operation always sees it.
type ConstructionError struct {
	Entity string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing %s: %s", e.Entity, e.Reason)
}

func constructionErrorf(entity, format string, args ...any) error {
	return &ConstructionError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}

// DataInsufficientError reports that a parent modality has too few samples
// for a requested derivation. Recoverable: the derived modality is simply
// absent for that recording.
type DataInsufficientError struct {
	Modality string
	Needed   int
	Got      int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("modality %s: %d samples, derivation needs at least %d",
		e.Modality, e.Got, e.Needed)
}

// MissingFileError reports an expected per-entity file that is absent on
// disk. Recoverable: the entity is reconstructed partially and loading
// continues.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing file %s: %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// UnsupportedVersionError reports a file whose format version is newer than
// any reader the persistence layer knows. Fatal for that entity, not for
// the whole load.
type UnsupportedVersionError struct {
	Path      string
	Version   string
	Supported string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("file %s has format version %s, newest supported is %s",
		e.Path, e.Version, e.Supported)
}

// MalformedEntryError reports an unparseable exclusion list entry. The
// entry is skipped with a warning; the rest of the list still applies.
type MalformedEntryError struct {
	Line  int
	Entry string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed exclusion entry on line %d: %q", e.Line, e.Entry)
}
