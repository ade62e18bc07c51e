package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(OverwriteAll, nil, &logging.NoOpLogger{})
}

func derivedModality(t *testing.T) *dataset.Modality {
	t.Helper()
	data, err := dataset.NewModalityData(
		[]float64{10, 10, 5},
		[]int{3},
		[]float64{0.02, 0.04, 0.06},
		50.0)
	require.NoError(t, err)

	m, err := dataset.NewModality("PD l1 ts1 on ultrasound", dataset.ModalityMeta{
		Kind:       dataset.KindPixelDifference,
		ParentName: "ultrasound",
		Params:     dataset.ParamMap{"norm": "l1", "timestep": "1"},
	}, data)
	require.NoError(t, err)
	m.Annotations().Annotate("peaks", dataset.Annotation{Label: "max", Time: 0.04})
	return m
}

func storedRecording(t *testing.T, dir string) *dataset.Recording {
	t.Helper()
	rec, err := dataset.NewRecording(dataset.RecordingMeta{
		Basename:        "File001",
		Path:            dir,
		ParticipantID:   "P1",
		TimeOfRecording: time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC),
		Prompt:          "say ba again",
	})
	require.NoError(t, err)

	raw, err := dataset.NewModality("ultrasound", dataset.ModalityMeta{
		Kind:             dataset.KindUltrasound,
		RecordedDataFile: "File001.ult",
		RecordedMetaFile: "File001US.txt",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, rec.AddModality(raw))
	require.NoError(t, rec.AddModality(derivedModality(t)))

	rec.Tiers().Annotate("words", dataset.Annotation{
		Label: "ba", Time: 0.1, EndTime: 0.5,
		Properties: map[string]string{"checked": "yes"},
	})
	return rec
}

func TestSaveAndLoadModality(t *testing.T) {
	dir := t.TempDir()
	store := testStore(t)
	m := derivedModality(t)

	written, err := store.SaveModality(dir, "File001", m)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"File001.PD_l1_ts1_on_ultrasound.npz",
		"File001.PD_l1_ts1_on_ultrasound.meta",
	}, written)

	warnings := logging.NewWarnings(&logging.NoOpLogger{})
	rec := storedRecordingShell(t, dir)
	err = store.loadModality(dir, rec, modalityListing{
		Name:     m.Name(),
		MetaName: ModalityMetaFile("File001", m.Name()),
	}, warnings)
	require.NoError(t, err)

	loaded, found := rec.Modality(m.Name())
	require.True(t, found)
	assert.Equal(t, m.Data().Samples, loaded.Data().Samples)
	assert.Equal(t, m.Data().TimeVector, loaded.Data().TimeVector)
	assert.Equal(t, m.Data().SamplingRate, loaded.Data().SamplingRate)
	assert.Equal(t, m.Params(), loaded.Params())
	assert.Equal(t, m.ParentName(), loaded.ParentName())

	tier, found := loaded.Annotations().Tier("peaks")
	require.True(t, found)
	assert.Equal(t, "max", tier.Annotations[0].Label)
	assert.Zero(t, warnings.Len())
}

func storedRecordingShell(t *testing.T, dir string) *dataset.Recording {
	t.Helper()
	rec, err := dataset.NewRecording(dataset.RecordingMeta{
		Basename: "File001", Path: dir, ParticipantID: "P1",
	})
	require.NoError(t, err)
	return rec
}

func TestRecordingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := testStore(t)
	rec := storedRecording(t, dir)

	_, err := store.SaveRecording(dir, rec)
	require.NoError(t, err)

	warnings := logging.NewWarnings(&logging.NoOpLogger{})
	loaded, err := store.LoadRecording(dir, "File001", warnings)
	require.NoError(t, err)
	assert.Zero(t, warnings.Len())

	assert.Equal(t, rec.Meta().ID, loaded.Meta().ID)
	assert.Equal(t, rec.Meta().Prompt, loaded.Meta().Prompt)
	assert.Equal(t, rec.Meta().ParticipantID, loaded.Meta().ParticipantID)
	assert.True(t, rec.Meta().TimeOfRecording.Equal(loaded.Meta().TimeOfRecording))
	assert.Equal(t, rec.ModalityNames(), loaded.ModalityNames())

	words, found := loaded.Tiers().Tier("words")
	require.True(t, found)
	require.Len(t, words.Annotations, 1)
	assert.Equal(t, "yes", words.Annotations[0].Properties["checked"])

	// The recorded modality stays deferred, the derived one is loaded.
	raw, _ := loaded.Modality("ultrasound")
	assert.False(t, raw.HasData())
	assert.Equal(t, "File001.ult", raw.Meta().RecordedDataFile)
	derived, _ := loaded.Modality("PD l1 ts1 on ultrasound")
	assert.True(t, derived.HasData())
}

func TestLoadToleratesMissingArrayFile(t *testing.T) {
	dir := t.TempDir()
	store := testStore(t)
	rec := storedRecording(t, dir)

	_, err := store.SaveRecording(dir, rec)
	require.NoError(t, err)
	require.NoError(t, os.Remove(
		filepath.Join(dir, ModalityDataFile("File001", "PD l1 ts1 on ultrasound"))))

	warnings := logging.NewWarnings(&logging.NoOpLogger{})
	loaded, err := store.LoadRecording(dir, "File001", warnings)
	require.NoError(t, err, "a missing array file must not fail the load")

	derived, found := loaded.Modality("PD l1 ts1 on ultrasound")
	require.True(t, found, "modality reconstructed from its metadata")
	assert.False(t, derived.HasData(), "payload stays deferred")
	assert.Equal(t, dataset.ParamMap{"norm": "l1", "timestep": "1"}, derived.Params())
	assert.Equal(t, 1, warnings.Len())
}

func TestLoadRejectsNewerFormatVersionPerEntity(t *testing.T) {
	dir := t.TempDir()
	store := testStore(t)
	rec := storedRecording(t, dir)

	_, err := store.SaveRecording(dir, rec)
	require.NoError(t, err)

	// Rewrite one modality's metadata as if written by a future version.
	metaPath := filepath.Join(dir, ModalityMetaFile("File001", "PD l1 ts1 on ultrasound"))
	raw, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	doc, err := ParseDocument(raw)
	require.NoError(t, err)
	require.NoError(t, doc.Set("file_format_version", "2.0"))
	updated, err := doc.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(metaPath, updated, 0o644))

	warnings := logging.NewWarnings(&logging.NoOpLogger{})
	loaded, err := store.LoadRecording(dir, "File001", warnings)
	require.NoError(t, err, "sibling entities still load")

	_, found := loaded.Modality("PD l1 ts1 on ultrasound")
	assert.False(t, found, "unsupported entity is skipped, not parsed best-effort")
	_, found = loaded.Modality("ultrasound")
	assert.True(t, found)
	assert.Equal(t, 1, warnings.Len())
}

func TestOverwritePolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "File001.Recording.meta")
	require.NoError(t, os.WriteFile(path, []byte("name: original\n"), 0o644))

	none := NewStore(OverwriteNone, nil, &logging.NoOpLogger{})
	assert.False(t, none.shouldWrite(path))
	assert.True(t, none.shouldWrite(filepath.Join(dir, "new.meta")))

	all := NewStore(OverwriteAll, nil, &logging.NoOpLogger{})
	assert.True(t, all.shouldWrite(path))

	denied := NewStore(OverwriteConfirm, func(string) bool { return false }, &logging.NoOpLogger{})
	assert.False(t, denied.shouldWrite(path))

	granted := NewStore(OverwriteConfirm, func(string) bool { return true }, &logging.NoOpLogger{})
	assert.True(t, granted.shouldWrite(path))

	// Confirm without a callback degrades to skipping.
	silent := NewStore(OverwriteConfirm, nil, &logging.NoOpLogger{})
	assert.False(t, silent.shouldWrite(path))
}

func TestMetaRewritePreservesHandComments(t *testing.T) {
	dir := t.TempDir()
	store := testStore(t)
	m := derivedModality(t)

	_, err := store.SaveModality(dir, "File001", m)
	require.NoError(t, err)

	// A human annotates the metadata file by hand.
	metaPath := filepath.Join(dir, ModalityMetaFile("File001", m.Name()))
	raw, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	annotated := append([]byte("# probe slipped half way through\n"), raw...)
	require.NoError(t, os.WriteFile(metaPath, annotated, 0o644))

	// A later save keeps the comment.
	_, err = store.SaveModality(dir, "File001", m)
	require.NoError(t, err)
	rewritten, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), "# probe slipped half way through")
}

func TestDatasetRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := testStore(t)

	ds, err := dataset.NewDataset("study", root)
	require.NoError(t, err)
	require.NoError(t, ds.AddParticipant(&dataset.Participant{
		ID: "P1", Meta: map[string]string{"dialect": "northern"},
	}))
	require.NoError(t, ds.AddParticipant(&dataset.Participant{ID: "P2"}))

	session, err := dataset.NewSession("day1", dataset.SessionMeta{Datasource: "AAA"})
	require.NoError(t, err)
	session.AddRecording(storedRecording(t, filepath.Join(root, "day1")))
	require.NoError(t, ds.AddSession(session))

	_, err = store.SaveDataset(ds, true)
	require.NoError(t, err)

	warnings := logging.NewWarnings(&logging.NoOpLogger{})
	loaded, err := store.LoadDataset(root, "study", warnings)
	require.NoError(t, err)
	assert.Zero(t, warnings.Len())

	assert.Equal(t, []string{"P1", "P2"}, loaded.ParticipantIDs())
	p1, found := loaded.Participant("P1")
	require.True(t, found)
	assert.Equal(t, "northern", p1.Meta["dialect"])

	sessions := loaded.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "day1", sessions[0].Name())
	assert.Equal(t, "AAA", sessions[0].Meta().Datasource)
	require.Len(t, sessions[0].Recordings(), 1)
	assert.Equal(t, "File001", sessions[0].Recordings()[0].Basename())
}

func TestSaveSessionSkipsExcluded(t *testing.T) {
	root := t.TempDir()
	store := testStore(t)

	session, err := dataset.NewSession("day1", dataset.SessionMeta{})
	require.NoError(t, err)
	kept := storedRecording(t, filepath.Join(root, "day1"))
	session.AddRecording(kept)

	dropped, err := dataset.NewRecording(dataset.RecordingMeta{
		Basename: "File002", ParticipantID: "P1",
	})
	require.NoError(t, err)
	dropped.Exclude()
	session.AddRecording(dropped)

	_, err = store.SaveSession(root, session, false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "day1", RecordingMetaFile("File002")))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "day1", RecordingMetaFile("File001")))
	assert.NoError(t, err)
}

func TestStatisticRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := testStore(t)
	rec := storedRecordingShell(t, dir)

	st, err := dataset.NewStatistic(
		"AggregateImage mean on ultrasound",
		dataset.KindAggregateImage,
		"ultrasound",
		dataset.ParamMap{"method": "mean"},
		[]float64{1, 2, 3, 4},
		[]int{2, 2})
	require.NoError(t, err)
	require.NoError(t, rec.AddStatistic(st))

	_, err = store.SaveRecording(dir, rec)
	require.NoError(t, err)

	warnings := logging.NewWarnings(&logging.NoOpLogger{})
	loaded, err := store.LoadRecording(dir, "File001", warnings)
	require.NoError(t, err)

	got, found := loaded.Statistic(st.Name())
	require.True(t, found)
	assert.Equal(t, st.Data(), got.Data())
	assert.Equal(t, st.Shape(), got.Shape())
	assert.Equal(t, st.Params(), got.Params())
}
