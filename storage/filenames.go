package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// File suffixes of the artikit on-disk format. Metadata is structured
// text, data is a binary array container; the two are independent files so
// either can be regenerated or moved without touching the other.
const (
	SuffixMeta = ".meta"
	SuffixData = ".npz"
)

// Entity markers used in recording-level and aggregate file names.
const (
	markerRecording = "Recording"
	markerSession   = "Session"
	markerDataset   = "Dataset"
	markerStatistic = "Statistic"
)

// FileFormatVersion is the version written into every metadata file. It is
// the version of the file format, distinct from the software's own version.
const FileFormatVersion = "1.0"

// fileSafe replaces whitespace in a modality name for use in file names.
func fileSafe(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

// ModalityDataFile names the binary array container of a modality.
func ModalityDataFile(basename, modalityName string) string {
	return fmt.Sprintf("%s.%s%s", basename, fileSafe(modalityName), SuffixData)
}

// ModalityMetaFile names the metadata file of a modality.
func ModalityMetaFile(basename, modalityName string) string {
	return fmt.Sprintf("%s.%s%s", basename, fileSafe(modalityName), SuffixMeta)
}

// StatisticDataFile names the binary array container of a statistic.
func StatisticDataFile(basename, statisticName string) string {
	return fmt.Sprintf("%s.%s.%s%s", basename, markerStatistic, fileSafe(statisticName), SuffixData)
}

// StatisticMetaFile names the metadata file of a statistic.
func StatisticMetaFile(basename, statisticName string) string {
	return fmt.Sprintf("%s.%s.%s%s", basename, markerStatistic, fileSafe(statisticName), SuffixMeta)
}

// RecordingMetaFile names the recording-level metadata file.
func RecordingMetaFile(basename string) string {
	return fmt.Sprintf("%s.%s%s", basename, markerRecording, SuffixMeta)
}

// SessionMetaFile names the session-level metadata file.
func SessionMetaFile(sessionName string) string {
	return fmt.Sprintf("%s.%s%s", fileSafe(sessionName), markerSession, SuffixMeta)
}

// DatasetMetaFile names the dataset-level metadata file.
func DatasetMetaFile(datasetName string) string {
	return fmt.Sprintf("%s.%s%s", fileSafe(datasetName), markerDataset, SuffixMeta)
}

// checkVersion parses a file_format_version value and reports whether this
// persistence layer has a reader for it. Newer major versions are
// unsupported; older and equal majors dispatch to the matching reader.
func checkVersion(version string) (major int, ok bool) {
	head, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, false
	}
	return major, major >= 1 && major <= currentMajorVersion
}

// currentMajorVersion is the newest metadata major version this layer can
// read.
const currentMajorVersion = 1
