package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artlab/artikit/dataset"
	"github.com/artlab/artikit/logging"
	"github.com/artlab/artikit/storage"
)

func engineRecording(t *testing.T, dir string, withData bool) *dataset.Recording {
	t.Helper()
	rec, err := dataset.NewRecording(dataset.RecordingMeta{
		Basename:      "File001",
		Path:          dir,
		ParticipantID: "P1",
		Prompt:        "say ba again",
	})
	require.NoError(t, err)

	var data *dataset.ModalityData
	if withData {
		data = imageSequence(t,
			[][]float64{{0, 0}, {10, 10}, {0, 0}, {5, 5}},
			[]int{4, 2})
	}
	parent, err := dataset.NewModality(
		"ultrasound", dataset.ModalityMeta{Kind: dataset.KindUltrasound}, data)
	require.NoError(t, err)
	require.NoError(t, rec.AddModality(parent))
	return rec
}

func TestDeriveComputesAndRegisters(t *testing.T) {
	rec := engineRecording(t, t.TempDir(), true)
	engine := NewEngine(nil, &logging.NoOpLogger{})

	params := PixelDifferenceParams{Norm: NormL1, Timestep: 1}
	m, err := engine.Derive(rec, "ultrasound", params)
	require.NoError(t, err)

	assert.Equal(t, "PD l1 ts1 on ultrasound", m.Name())
	assert.Equal(t, dataset.KindPixelDifference, m.Kind())
	assert.Equal(t, "ultrasound", m.ParentName())
	assert.Equal(t, []float64{10, 10, 5}, m.Data().Samples)

	registered, found := rec.Modality(m.Name())
	require.True(t, found)
	assert.Same(t, m, registered)

	// A second identical request resolves to the same artifact.
	again, err := engine.Derive(rec, "ultrasound", params)
	require.NoError(t, err)
	assert.Same(t, m, again)
}

func TestDeriveUsesDiskCache(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewStore(storage.OverwriteAll, nil, &logging.NoOpLogger{})

	// First run: compute and persist the artifact.
	first := engineRecording(t, dir, true)
	engine := NewEngine(store, &logging.NoOpLogger{})
	params := PixelDifferenceParams{Norm: NormL1, Timestep: 1}
	m, err := engine.Derive(first, "ultrasound", params)
	require.NoError(t, err)
	_, err = store.SaveModality(dir, first.Basename(), m)
	require.NoError(t, err)

	// Second run: the parent has no loaded data, so a returned result can
	// only have come from the cache.
	second := engineRecording(t, dir, false)
	cached, err := NewEngine(store, &logging.NoOpLogger{}).Derive(second, "ultrasound", params)
	require.NoError(t, err)
	assert.Equal(t, m.Data().Samples, cached.Data().Samples)
	assert.Equal(t, m.Data().TimeVector, cached.Data().TimeVector)

	parent, _ := second.Modality("ultrasound")
	assert.False(t, parent.HasData(), "cache hit must not touch the parent")

	// Changing any one parameter field forces recomputation, which fails
	// here because the parent data is genuinely unavailable.
	changed := PixelDifferenceParams{Norm: NormL2, Timestep: 1}
	_, err = NewEngine(store, &logging.NoOpLogger{}).Derive(
		engineRecording(t, dir, false), "ultrasound", changed)
	require.Error(t, err)
}

func TestDeriveRecordsInsufficientDataWarning(t *testing.T) {
	rec := engineRecording(t, t.TempDir(), true)
	engine := NewEngine(nil, &logging.NoOpLogger{})

	params := PixelDifferenceParams{Norm: NormL1, Timestep: 9}
	_, err := engine.Derive(rec, "ultrasound", params)
	require.Error(t, err)

	require.Equal(t, 1, engine.Warnings().Len())
	assert.Len(t, engine.Warnings().ForScope("File001"), 1)

	_, found := rec.Modality(DerivedName(params, "ultrasound"))
	assert.False(t, found, "failed derivation must leave the modality absent")
}

func TestDeriveAllReleasesParentMemory(t *testing.T) {
	rec := engineRecording(t, t.TempDir(), true)
	engine := NewEngine(nil, &logging.NoOpLogger{})

	requests := []Request{
		{ParentName: "ultrasound", Params: PixelDifferenceParams{Norm: NormL1, Timestep: 1}},
		{ParentName: "ultrasound", Params: PixelDifferenceParams{Norm: NormL2, Timestep: 2}},
	}
	derived := engine.DeriveAll(rec, requests, true)
	assert.Len(t, derived, 2)

	parent, _ := rec.Modality("ultrasound")
	assert.False(t, parent.HasData(), "parent array released after last consumer")

	for _, name := range derived {
		m, found := rec.Modality(name)
		require.True(t, found)
		assert.True(t, m.HasData())
	}
}

func TestDeriveAllContinuesPastFailures(t *testing.T) {
	rec := engineRecording(t, t.TempDir(), true)
	engine := NewEngine(nil, &logging.NoOpLogger{})

	requests := []Request{
		{ParentName: "ultrasound", Params: PixelDifferenceParams{Norm: NormL1, Timestep: 99}},
		{ParentName: "missing", Params: PixelDifferenceParams{Norm: NormL1, Timestep: 1}},
		{ParentName: "ultrasound", Params: PixelDifferenceParams{Norm: NormL1, Timestep: 1}},
	}
	derived := engine.DeriveAll(rec, requests, false)

	require.Len(t, derived, 1)
	assert.Equal(t, "PD l1 ts1 on ultrasound", derived[0])
	assert.Equal(t, 2, engine.Warnings().Len())
}

func TestDeriveStatistic(t *testing.T) {
	rec := engineRecording(t, t.TempDir(), true)
	engine := NewEngine(nil, &logging.NoOpLogger{})

	st, err := engine.DeriveStatistic(rec, "ultrasound", AggregateImageParams{Method: AggregateMean})
	require.NoError(t, err)
	assert.Equal(t, dataset.KindAggregateImage, st.Kind())
	assert.Equal(t, []int{2}, st.Shape())

	// Mean over frames (0,10,0,5) per position.
	assert.Equal(t, []float64{3.75, 3.75}, st.Data())

	registered, found := rec.Statistic(st.Name())
	require.True(t, found)
	assert.Same(t, st, registered)

	_, err = engine.Derive(rec, "ultrasound", AggregateImageParams{Method: AggregateMean})
	require.Error(t, err, "statistic algorithms do not yield time series")
}

func TestPreloadAllSkipsExcluded(t *testing.T) {
	dir := t.TempDir()
	ds, err := dataset.NewDataset("study", dir)
	require.NoError(t, err)
	require.NoError(t, ds.AddParticipant(&dataset.Participant{ID: "P1"}))

	session, err := dataset.NewSession("day1", dataset.SessionMeta{})
	require.NoError(t, err)

	included := engineRecording(t, dir, true)
	excluded := engineRecording(t, dir, true)
	excluded.Exclude()
	session.AddRecording(included)
	session.AddRecording(excluded)
	require.NoError(t, ds.AddSession(session))

	engine := NewEngine(nil, &logging.NoOpLogger{})
	requests := []Request{
		{ParentName: "ultrasound", Params: PixelDifferenceParams{Norm: NormL1, Timestep: 1}},
	}
	engine.PreloadAll(ds, requests, false)

	_, found := included.Modality("PD l1 ts1 on ultrasound")
	assert.True(t, found)
	_, found = excluded.Modality("PD l1 ts1 on ultrasound")
	assert.False(t, found)
}
