package storage

import "github.com/artlab/artikit/dataset"

// entityHeader opens every metadata file. ObjectType and Name identify the
// entity; FileFormatVersion selects the reader on load and is the version
// of the file format, not of the software that wrote it.
type entityHeader struct {
	ObjectType        string `yaml:"object_type"`
	Name              string `yaml:"name"`
	FileFormatVersion string `yaml:"file_format_version"`
}

func newHeader(objectType, name string) entityHeader {
	return entityHeader{
		ObjectType:        objectType,
		Name:              name,
		FileFormatVersion: FileFormatVersion,
	}
}

type modalityMetaFile struct {
	entityHeader `yaml:",inline"`
	Parameters   dataset.ModalityMeta `yaml:"parameters"`
	Annotations  []*dataset.Tier      `yaml:"annotations,omitempty"`
}

type statisticMetaFile struct {
	entityHeader `yaml:",inline"`
	Kind         dataset.ModalityKind `yaml:"kind"`
	ParentName   string               `yaml:"parent_name,omitempty"`
	Params       dataset.ParamMap     `yaml:"params,omitempty"`
	DataFile     string               `yaml:"data_file"`
}

// modalityListing is one entry of a recording's modality index: where the
// modality's own files live. Recorded modalities point at their original
// source files; derived ones at artikit files.
type modalityListing struct {
	Name      string `yaml:"name"`
	DataName  string `yaml:"data_name,omitempty"`
	MetaName  string `yaml:"meta_name,omitempty"`
	Statistic bool   `yaml:"statistic,omitempty"`
}

type recordingMetaFile struct {
	entityHeader `yaml:",inline"`
	Parameters   dataset.RecordingMeta `yaml:"parameters"`
	Excluded     bool                  `yaml:"excluded,omitempty"`
	Modalities   []modalityListing     `yaml:"modalities"`
	Annotations  []*dataset.Tier       `yaml:"annotations,omitempty"`
}

type sessionMetaFile struct {
	entityHeader `yaml:",inline"`
	Parameters   dataset.SessionMeta `yaml:"parameters"`
	Participants []string            `yaml:"participants"`
	Recordings   []string            `yaml:"recordings"`
}

type datasetParameters struct {
	Path string `yaml:"path"`
}

type datasetMetaFile struct {
	entityHeader `yaml:",inline"`
	Parameters   datasetParameters      `yaml:"parameters"`
	Participants []*dataset.Participant `yaml:"participants"`
	Sessions     []string               `yaml:"sessions"`
}
