package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
)

// LoadModalityData reads a modality's array container from dir and
// installs it. Used to rehydrate a deferred or released payload.
func (s *Store) LoadModalityData(dir, basename string, m *dataset.Modality) error {
	dataName := m.Meta().DataFile
	if dataName == "" {
		dataName = ModalityDataFile(basename, m.Name())
	}
	payload, err := readArrayFile(filepath.Join(dir, dataName))
	if err != nil {
		return err
	}
	data, err := payload.modalityData()
	if err != nil {
		return err
	}
	m.SetData(data)
	return nil
}

// loadModality reconstructs one modality from its listing. A missing or
// unreadable array file leaves the payload deferred and records a warning;
// a missing or unsupported metadata file skips the modality with a warning.
// Only unexpected failures propagate.
func (s *Store) loadModality(
	dir string,
	rec *dataset.Recording,
	listing modalityListing,
	warnings *logging.Warnings,
) error {
	metaName := listing.MetaName
	if metaName == "" {
		warnings.Addf(rec.Basename(),
			"modality %q has no metadata file, assuming batch loaded and skipping", listing.Name)
		return nil
	}

	var file modalityMetaFile
	if err := s.readMeta(filepath.Join(dir, metaName), &file); err != nil {
		var missing *dataset.MissingFileError
		var unsupported *dataset.UnsupportedVersionError
		if errors.As(err, &missing) || errors.As(err, &unsupported) {
			warnings.Add(rec.Basename(), fmt.Sprintf("skipping modality %q", listing.Name), err)
			return nil
		}
		return err
	}

	m, err := dataset.NewModality(file.Name, file.Parameters, nil)
	if err != nil {
		return err
	}
	m.Annotations().SetTiers(file.Annotations)

	if file.Parameters.DataFile != "" {
		if err := s.LoadModalityData(dir, rec.Basename(), m); err != nil {
			// Reconstructed with a deferred payload; the rest of the
			// dataset still loads.
			warnings.Add(rec.Basename(),
				fmt.Sprintf("modality %q data not loaded", m.Name()), err)
		}
	}

	return rec.AddModality(m)
}

// loadStatistic reconstructs one statistic from its listing.
func (s *Store) loadStatistic(
	dir string,
	rec *dataset.Recording,
	listing modalityListing,
	warnings *logging.Warnings,
) error {
	var file statisticMetaFile
	if err := s.readMeta(filepath.Join(dir, listing.MetaName), &file); err != nil {
		var missing *dataset.MissingFileError
		var unsupported *dataset.UnsupportedVersionError
		if errors.As(err, &missing) || errors.As(err, &unsupported) {
			warnings.Add(rec.Basename(), fmt.Sprintf("skipping statistic %q", listing.Name), err)
			return nil
		}
		return err
	}

	payload, err := readArrayFile(filepath.Join(dir, file.DataFile))
	if err != nil {
		warnings.Add(rec.Basename(),
			fmt.Sprintf("statistic %q data not loaded", listing.Name), err)
		return nil
	}

	st, err := dataset.NewStatistic(
		file.Name, file.Kind, file.ParentName, file.Params, payload.data, payload.shape)
	if err != nil {
		return err
	}
	return rec.AddStatistic(st)
}

// LoadRecording reconstructs a recording and its modalities from dir.
// Recoverable per-modality problems are recorded on warnings; an error is
// returned only when the recording itself cannot be reconstructed.
func (s *Store) LoadRecording(
	dir, basename string,
	warnings *logging.Warnings,
) (*dataset.Recording, error) {
	var file recordingMetaFile
	if err := s.readMeta(filepath.Join(dir, RecordingMetaFile(basename)), &file); err != nil {
		return nil, err
	}

	rec, err := dataset.NewRecording(file.Parameters)
	if err != nil {
		return nil, err
	}
	if file.Excluded {
		rec.Exclude()
	}
	rec.Tiers().SetTiers(file.Annotations)

	for _, listing := range file.Modalities {
		if listing.Statistic {
			err = s.loadStatistic(dir, rec, listing, warnings)
		} else {
			err = s.loadModality(dir, rec, listing, warnings)
		}
		if err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// LoadSession reconstructs a session from its directory under rootDir.
// Recordings that fail to load are skipped with a warning so sibling
// recordings still load.
func (s *Store) LoadSession(
	rootDir, name string,
	warnings *logging.Warnings,
) (*dataset.Session, error) {
	dir := filepath.Join(rootDir, name)

	var file sessionMetaFile
	if err := s.readMeta(filepath.Join(dir, SessionMetaFile(name)), &file); err != nil {
		return nil, err
	}

	session, err := dataset.NewSession(file.Name, file.Parameters)
	if err != nil {
		return nil, err
	}

	for _, metaName := range file.Recordings {
		basename := strings.TrimSuffix(metaName, "."+markerRecording+SuffixMeta)
		rec, err := s.LoadRecording(dir, basename, warnings)
		if err != nil {
			warnings.Add(name, fmt.Sprintf("skipping recording %q", basename), err)
			continue
		}
		session.AddRecording(rec)
	}
	return session, nil
}

// LoadDataset reconstructs a dataset from its root directory. Sessions
// that fail to load are skipped with a warning.
func (s *Store) LoadDataset(
	rootPath, name string,
	warnings *logging.Warnings,
) (*dataset.Dataset, error) {
	var file datasetMetaFile
	if err := s.readMeta(filepath.Join(rootPath, DatasetMetaFile(name)), &file); err != nil {
		return nil, err
	}

	ds, err := dataset.NewDataset(file.Name, rootPath)
	if err != nil {
		return nil, err
	}
	for _, p := range file.Participants {
		if err := ds.AddParticipant(p); err != nil {
			return nil, err
		}
	}

	for _, sessionName := range file.Sessions {
		session, err := s.LoadSession(rootPath, sessionName, warnings)
		if err != nil {
			warnings.Add(name, fmt.Sprintf("skipping session %q", sessionName), err)
			continue
		}
		if err := ds.AddSession(session); err != nil {
			warnings.Add(name, fmt.Sprintf("skipping session %q", sessionName), err)
		}
	}
	return ds, nil
}

// CachedDerived answers the derivation engine's cache query: is there a
// saved artifact for (basename, artifact name) whose parameter record
// matches field-wise and whose format version this layer can read? On a
// hit the saved payload is returned instead of recomputing.
func (s *Store) CachedDerived(
	dir, basename, artifactName string,
	params dataset.ParamMap,
) (*dataset.ModalityData, bool) {
	metaPath := filepath.Join(dir, ModalityMetaFile(basename, artifactName))

	var file modalityMetaFile
	if err := s.readMeta(metaPath, &file); err != nil {
		return nil, false
	}
	if !file.Parameters.Params.Equal(params) {
		return nil, false
	}

	dataName := file.Parameters.DataFile
	if dataName == "" {
		dataName = ModalityDataFile(basename, artifactName)
	}
	payload, err := readArrayFile(filepath.Join(dir, dataName))
	if err != nil {
		return nil, false
	}
	data, err := payload.modalityData()
	if err != nil {
		return nil, false
	}
	s.log.Debug("derived artifact cache hit",
		logging.Fields{"recording": basename, "artifact": artifactName})
	return data, true
}
