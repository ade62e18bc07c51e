package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commentedMeta = `# Saved by artikit. Hand edits are fine, comments are kept.
object_type: Modality # entity marker
name: PD l1 ts1 on ultrasound
file_format_version: "1.0"
parameters:
  # The norm was picked after the 2024 pilot.
  kind: pixel_difference
  parent_name: ultrasound
`

func TestDocumentRoundTripPreservesComments(t *testing.T) {
	doc, err := ParseDocument([]byte(commentedMeta))
	require.NoError(t, err)

	out, err := doc.Marshal()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# Saved by artikit. Hand edits are fine, comments are kept.")
	assert.Contains(t, text, "# entity marker")
	assert.Contains(t, text, "# The norm was picked after the 2024 pilot.")
	assert.Contains(t, text, "PD l1 ts1 on ultrasound")
}

func TestDocumentUpdateKeepsUnrelatedComments(t *testing.T) {
	doc, err := ParseDocument([]byte(commentedMeta))
	require.NoError(t, err)

	type params struct {
		Kind       string `yaml:"kind"`
		ParentName string `yaml:"parent_name"`
	}
	err = doc.Update(struct {
		Name       string `yaml:"name"`
		Parameters params `yaml:"parameters"`
	}{
		Name:       "PD l2 ts1 on ultrasound",
		Parameters: params{Kind: "pixel_difference", ParentName: "ultrasound interpolated"},
	})
	require.NoError(t, err)

	out, err := doc.Marshal()
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "PD l2 ts1 on ultrasound")
	assert.Contains(t, text, "ultrasound interpolated")
	assert.Contains(t, text, "# entity marker")
	assert.Contains(t, text, "# The norm was picked after the 2024 pilot.")
	assert.NotContains(t, text, "PD l1 ts1 on ultrasound")

	// Untouched fields survive the update.
	version, ok := doc.GetString("file_format_version")
	require.True(t, ok)
	assert.Equal(t, "1.0", version)
}

func TestDocumentSetAppendsAndReplaces(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Set("name", "File001"))
	require.NoError(t, doc.Set("excluded", true))
	require.NoError(t, doc.Set("name", "File002"))

	name, ok := doc.GetString("name")
	require.True(t, ok)
	assert.Equal(t, "File002", name)

	_, ok = doc.Get("missing")
	assert.False(t, ok)
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
	}{
		{"1.0", true},
		{"1.7", true},
		{"2.0", false},
		{"0.9", false},
		{"not-a-version", false},
	}
	for _, tt := range tests {
		_, ok := checkVersion(tt.version)
		assert.Equal(t, tt.ok, ok, "version %q", tt.version)
	}
}
