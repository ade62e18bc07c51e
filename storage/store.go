package storage

import (
	"fmt"
	"os"

	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
)

// Overwrite is the ternary policy applied when a save would replace an
// existing file. The library never prompts; an interactive application
// passes OverwriteConfirm with a callback.
type Overwrite int

const (
	// OverwriteConfirm asks the confirm callback per file. Without a
	// callback it degrades to OverwriteNone.
	OverwriteConfirm Overwrite = iota
	// OverwriteAll replaces existing files without asking.
	OverwriteAll
	// OverwriteNone skips existing files.
	OverwriteNone
)

// ConfirmFunc decides whether one existing file may be replaced.
type ConfirmFunc func(path string) bool

// Store is the persistence layer: it writes and reads entity metadata as
// comment-preserving structured text and entity payloads as binary array
// containers, and answers the derivation engine's cache queries.
type Store struct {
	overwrite Overwrite
	confirm   ConfirmFunc
	log       logging.Logger
}

// NewStore creates a store with the given overwrite policy.
func NewStore(overwrite Overwrite, confirm ConfirmFunc, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Store{overwrite: overwrite, confirm: confirm, log: logger}
}

// shouldWrite applies the overwrite policy to one target path.
func (s *Store) shouldWrite(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return true
	}
	switch s.overwrite {
	case OverwriteAll:
		return true
	case OverwriteConfirm:
		return s.confirm != nil && s.confirm(path)
	default:
		return false
	}
}

// writeMetaDocument writes a metadata file. If the target already exists
// and is parseable, its node tree is updated in place so comments added by
// hand survive the rewrite.
func (s *Store) writeMetaDocument(path string, value any) (bool, error) {
	if !s.shouldWrite(path) {
		s.log.Debug("skipping existing file", logging.Fields{"path": path})
		return false, nil
	}

	doc := (*Document)(nil)
	if existing, err := os.ReadFile(path); err == nil {
		if parsed, perr := ParseDocument(existing); perr == nil {
			doc = parsed
		}
	}
	if doc == nil {
		fresh, err := DocumentFrom(value)
		if err != nil {
			return false, err
		}
		doc = fresh
	} else if err := doc.Update(value); err != nil {
		return false, err
	}

	out, err := doc.Marshal()
	if err != nil {
		return false, fmt.Errorf("serializing %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	s.log.Debug("wrote file", logging.Fields{"path": path})
	return true, nil
}

// metaReaders dispatches metadata decoding by major format version. A
// version whose major is newer than any entry here fails with
// UnsupportedVersionError before dispatch.
var metaReaders = map[int]func(doc *Document, out any) error{
	1: func(doc *Document, out any) error { return doc.Decode(out) },
}

// readMeta loads, version-checks and decodes one metadata file.
func (s *Store) readMeta(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &dataset.MissingFileError{Path: path, Err: err}
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	version, ok := doc.GetString("file_format_version")
	if !ok {
		return fmt.Errorf("file %s has no file_format_version field", path)
	}
	major, supported := checkVersion(version)
	if !supported {
		return &dataset.UnsupportedVersionError{
			Path:      path,
			Version:   version,
			Supported: FileFormatVersion,
		}
	}
	reader := metaReaders[major]
	if err := reader(doc, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
