package storage

import (
	"archive/zip"
	"fmt"
	"os"

	"github.com/sbinet/npyio"

	"github.com/artlab/artikit/dataset"
)

// The array container is a numpy .npz: a zip archive of .npy members. The
// members are flat 1-D arrays plus an explicit shape member, so the
// container stays self-describing for any array rank:
//
//	data.npy          flat float64 samples
//	shape.npy         int64 dimensions, [time, ...]
//	timevector.npy    float64 time vector (empty for statistics)
//	sampling_rate.npy single float64 (zero for statistics)
const (
	memberData         = "data.npy"
	memberShape        = "shape.npy"
	memberTimeVector   = "timevector.npy"
	memberSamplingRate = "sampling_rate.npy"
)

// arrayPayload is the decoded content of an array container.
type arrayPayload struct {
	data         []float64
	shape        []int
	timeVector   []float64
	samplingRate float64
}

func writeArrayFile(path string, payload arrayPayload) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating array container: %w", err)
	}
	defer f.Close()

	archive := zip.NewWriter(f)

	if payload.timeVector == nil {
		payload.timeVector = []float64{}
	}
	shape := make([]int64, len(payload.shape))
	for i, dim := range payload.shape {
		shape[i] = int64(dim)
	}

	members := []struct {
		name  string
		value any
	}{
		{memberData, payload.data},
		{memberShape, shape},
		{memberTimeVector, payload.timeVector},
		{memberSamplingRate, []float64{payload.samplingRate}},
	}
	for _, member := range members {
		w, err := archive.Create(member.name)
		if err != nil {
			return fmt.Errorf("adding %s: %w", member.name, err)
		}
		if err := npyio.Write(w, member.value); err != nil {
			return fmt.Errorf("encoding %s: %w", member.name, err)
		}
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("finalizing array container: %w", err)
	}
	return nil
}

func readArrayFile(path string) (*arrayPayload, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &dataset.MissingFileError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("opening array container %s: %w", path, err)
	}
	defer archive.Close()

	payload := &arrayPayload{}
	var shape []int64
	var rate []float64

	for _, member := range archive.File {
		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("opening member %s of %s: %w", member.Name, path, err)
		}
		switch member.Name {
		case memberData:
			err = npyio.Read(rc, &payload.data)
		case memberShape:
			err = npyio.Read(rc, &shape)
		case memberTimeVector:
			err = npyio.Read(rc, &payload.timeVector)
		case memberSamplingRate:
			err = npyio.Read(rc, &rate)
		}
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding member %s of %s: %w", member.Name, path, err)
		}
	}

	payload.shape = make([]int, len(shape))
	for i, dim := range shape {
		payload.shape[i] = int(dim)
	}
	if len(rate) > 0 {
		payload.samplingRate = rate[0]
	}
	return payload, nil
}

// modalityData converts the payload into a validated ModalityData.
func (p *arrayPayload) modalityData() (*dataset.ModalityData, error) {
	return dataset.NewModalityData(p.data, p.shape, p.timeVector, p.samplingRate)
}
