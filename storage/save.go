package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
)

// SaveModality writes a modality's array container and metadata file into
// dir and returns the file names written. Recorded modalities get a
// metadata file only; their raw data stays in the original source files.
// A derived modality with released data also gets metadata only, so the
// artifact can still be identified and recomputed.
func (s *Store) SaveModality(dir, basename string, m *dataset.Modality) ([]string, error) {
	var written []string

	dataName := ""
	if m.Derived() && m.HasData() {
		dataName = ModalityDataFile(basename, m.Name())
		path := filepath.Join(dir, dataName)
		if s.shouldWrite(path) {
			data := m.Data()
			err := writeArrayFile(path, arrayPayload{
				data:         data.Samples,
				shape:        data.Shape,
				timeVector:   data.TimeVector,
				samplingRate: data.SamplingRate,
			})
			if err != nil {
				return written, fmt.Errorf("saving data of %s: %w", m.Name(), err)
			}
			written = append(written, dataName)
		} else {
			s.log.Debug("skipping existing file", logging.Fields{"path": path})
		}
	}

	metaName := ModalityMetaFile(basename, m.Name())
	meta := m.Meta()
	meta.DataFile = dataName
	meta.MetaFile = metaName
	m.SetSavedFiles(dataName, metaName)

	file := modalityMetaFile{
		entityHeader: newHeader("Modality", m.Name()),
		Parameters:   meta,
		Annotations:  m.Annotations().Tiers(),
	}
	wrote, err := s.writeMetaDocument(filepath.Join(dir, metaName), file)
	if err != nil {
		return written, fmt.Errorf("saving meta of %s: %w", m.Name(), err)
	}
	if wrote {
		written = append(written, metaName)
	}
	return written, nil
}

// SaveStatistic writes a statistic's values and metadata into dir.
func (s *Store) SaveStatistic(dir, basename string, st *dataset.Statistic) ([]string, error) {
	var written []string

	dataName := StatisticDataFile(basename, st.Name())
	path := filepath.Join(dir, dataName)
	if s.shouldWrite(path) {
		err := writeArrayFile(path, arrayPayload{
			data:  st.Data(),
			shape: st.Shape(),
		})
		if err != nil {
			return written, fmt.Errorf("saving data of statistic %s: %w", st.Name(), err)
		}
		written = append(written, dataName)
	}

	metaName := StatisticMetaFile(basename, st.Name())
	file := statisticMetaFile{
		entityHeader: newHeader("Statistic", st.Name()),
		Kind:         st.Kind(),
		ParentName:   st.ParentName(),
		Params:       st.Params(),
		DataFile:     dataName,
	}
	wrote, err := s.writeMetaDocument(filepath.Join(dir, metaName), file)
	if err != nil {
		return written, fmt.Errorf("saving meta of statistic %s: %w", st.Name(), err)
	}
	if wrote {
		written = append(written, metaName)
	}
	return written, nil
}

// SaveRecording writes a recording's modalities, statistics and the
// recording-level metadata file into dir. Returns every file name written.
func (s *Store) SaveRecording(dir string, rec *dataset.Recording) ([]string, error) {
	var written []string
	basename := rec.Basename()

	listings := make([]modalityListing, 0, len(rec.ModalityNames()))
	for _, name := range rec.ModalityNames() {
		m, _ := rec.Modality(name)
		files, err := s.SaveModality(dir, basename, m)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
		listing := modalityListing{Name: name, MetaName: ModalityMetaFile(basename, name)}
		meta := m.Meta()
		if m.Derived() {
			listing.DataName = meta.DataFile
		} else {
			listing.DataName = meta.RecordedDataFile
		}
		listings = append(listings, listing)
	}

	for _, name := range rec.StatisticNames() {
		st, _ := rec.Statistic(name)
		files, err := s.SaveStatistic(dir, basename, st)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
		listings = append(listings, modalityListing{
			Name:      name,
			DataName:  StatisticDataFile(basename, name),
			MetaName:  StatisticMetaFile(basename, name),
			Statistic: true,
		})
	}

	file := recordingMetaFile{
		entityHeader: newHeader("Recording", basename),
		Parameters:   rec.Meta(),
		Excluded:     rec.Excluded(),
		Modalities:   listings,
		Annotations:  rec.Tiers().Tiers(),
	}
	metaName := RecordingMetaFile(basename)
	wrote, err := s.writeMetaDocument(filepath.Join(dir, metaName), file)
	if err != nil {
		return written, fmt.Errorf("saving recording %s: %w", basename, err)
	}
	if wrote {
		written = append(written, metaName)
	}
	return written, nil
}

// SaveSession writes a session into its own directory under rootDir.
// Excluded recordings are saved only when saveExcluded is set.
func (s *Store) SaveSession(
	rootDir string,
	session *dataset.Session,
	saveExcluded bool,
) ([]string, error) {
	dir := filepath.Join(rootDir, session.Name())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	var written []string
	var recordingMetas []string
	for _, rec := range session.Recordings() {
		if rec.Excluded() && !saveExcluded {
			continue
		}
		files, err := s.SaveRecording(dir, rec)
		for _, f := range files {
			written = append(written, filepath.Join(session.Name(), f))
		}
		if err != nil {
			return written, err
		}
		recordingMetas = append(recordingMetas, RecordingMetaFile(rec.Basename()))
	}

	file := sessionMetaFile{
		entityHeader: newHeader("Session", session.Name()),
		Parameters:   session.Meta(),
		Participants: session.ParticipantIDs(),
		Recordings:   recordingMetas,
	}
	metaName := SessionMetaFile(session.Name())
	wrote, err := s.writeMetaDocument(filepath.Join(dir, metaName), file)
	if err != nil {
		return written, fmt.Errorf("saving session %s: %w", session.Name(), err)
	}
	if wrote {
		written = append(written, filepath.Join(session.Name(), metaName))
	}
	return written, nil
}

// SaveDataset writes the whole dataset under its root path: one directory
// per session plus the dataset-level metadata file.
func (s *Store) SaveDataset(ds *dataset.Dataset, saveExcluded bool) ([]string, error) {
	root := ds.RootPath()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset directory: %w", err)
	}

	var written []string
	var sessionNames []string
	for _, session := range ds.Sessions() {
		files, err := s.SaveSession(root, session, saveExcluded)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
		sessionNames = append(sessionNames, session.Name())
	}

	participants := make([]*dataset.Participant, 0, len(ds.ParticipantIDs()))
	for _, id := range ds.ParticipantIDs() {
		p, _ := ds.Participant(id)
		participants = append(participants, p)
	}

	file := datasetMetaFile{
		entityHeader: newHeader("Dataset", ds.Name()),
		Parameters:   datasetParameters{Path: root},
		Participants: participants,
		Sessions:     sessionNames,
	}
	metaName := DatasetMetaFile(ds.Name())
	wrote, err := s.writeMetaDocument(filepath.Join(root, metaName), file)
	if err != nil {
		return written, fmt.Errorf("saving dataset %s: %w", ds.Name(), err)
	}
	if wrote {
		written = append(written, metaName)
	}
	return written, nil
}
