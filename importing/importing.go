// Package importing defines the contract between external import adapters
// and the core data model, and applies the exclusion filter so that
// excluded recordings are never constructed.
package importing

import (
	"fmt"

	"github.com/artlab/artikit/config"
	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
)

// Adapter is implemented by format-specific importers (AAA ultrasound,
// wav+TextGrid directories, ...). ImportRecording must return a Recording
// populated with at least one recorded modality with a valid time vector
// and sampling rate, and metadata carrying participant id, timestamp and
// prompt.
type Adapter interface {
	ImportRecording(dir, basename string) (*dataset.Recording, error)
}

// ImportSession imports the named recordings from dir through the adapter
// into a new session. Basenames on the exclusion list are filtered before
// any construction or I/O happens; prompt-based exclusions, which need the
// imported metadata, drop the recording right after import so it never
// enters the session. Import failures are recorded as warnings and the
// remaining recordings still import.
func ImportSession(
	name string,
	meta dataset.SessionMeta,
	adapter Adapter,
	dir string,
	basenames []string,
	exclusions *config.ExclusionList,
	warnings *logging.Warnings,
) (*dataset.Session, error) {
	session, err := dataset.NewSession(name, meta)
	if err != nil {
		return nil, err
	}

	for _, basename := range basenames {
		if exclusions.ExcludesFile(basename) {
			logging.GetGlobalLogger().Info("excluding recording",
				logging.Fields{"basename": basename, "reason": "exclusion list"})
			continue
		}

		rec, err := adapter.ImportRecording(dir, basename)
		if err != nil {
			warnings.Add(name, fmt.Sprintf("importing %q failed", basename), err)
			continue
		}

		if exclusions.ExcludesPrompt(rec.Meta().Prompt) {
			logging.GetGlobalLogger().Info("excluding recording",
				logging.Fields{"basename": basename, "reason": "prompt matches exclusion list"})
			continue
		}

		session.AddRecording(rec)
	}
	return session, nil
}
