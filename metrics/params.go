package metrics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/artlab/artikit/dataset"
)

// Algorithm tags the closed set of derivation algorithms.
type Algorithm string

const (
	AlgoPixelDifference         Algorithm = "pixel-difference"
	AlgoScanlinePixelDifference Algorithm = "scanline-pixel-difference"
	AlgoOpticalFlow             Algorithm = "optical-flow"
	AlgoPCA                     Algorithm = "principal-component-analysis"
	AlgoAggregateImage          Algorithm = "aggregate-image"
)

// Kind maps the algorithm tag to the modality kind it produces.
func (a Algorithm) Kind() dataset.ModalityKind {
	switch a {
	case AlgoPixelDifference:
		return dataset.KindPixelDifference
	case AlgoScanlinePixelDifference:
		return dataset.KindScanlinePixelDifference
	case AlgoOpticalFlow:
		return dataset.KindOpticalFlow
	case AlgoPCA:
		return dataset.KindPCA
	case AlgoAggregateImage:
		return dataset.KindAggregateImage
	default:
		return ""
	}
}

// TimeSeries reports whether the algorithm produces a time series (a
// derived Modality) as opposed to a time-independent Statistic.
func (a Algorithm) TimeSeries() bool {
	switch a {
	case AlgoPixelDifference, AlgoScanlinePixelDifference, AlgoOpticalFlow:
		return true
	}
	return false
}

// Norm selects the aggregation norm for pixel difference.
type Norm string

const (
	NormL1 Norm = "l1"
	NormL2 Norm = "l2"
)

// ImageMask selects the image region pixel difference aggregates over.
// Raw ultrasound frames store the probe-near half of the fan first, so
// "top" and "bottom" address halves of the first non-time axis.
type ImageMask string

const (
	MaskWhole  ImageMask = "whole"
	MaskTop    ImageMask = "top"
	MaskBottom ImageMask = "bottom"
)

// Params is the algorithm-specific parameter record handed to the
// derivation engine. ParamMap is the serialized form used for cache
// identity: two records match exactly when their maps are field-wise
// equal.
type Params interface {
	Algorithm() Algorithm
	ParamMap() dataset.ParamMap
	Validate() error
}

// PixelDifferenceParams configures pixel difference and its scanline
// variant.
type PixelDifferenceParams struct {
	Norm                Norm      `yaml:"norm" json:"norm"`
	Timestep            int       `yaml:"timestep" json:"timestep"`
	UseInterpolatedData bool      `yaml:"use_interpolated_data" json:"use_interpolated_data"`
	MaskImages          bool      `yaml:"mask_images" json:"mask_images"`
	Mask                ImageMask `yaml:"mask,omitempty" json:"mask,omitempty"`

	// Scanline switches to the per-scanline variant.
	Scanline bool `yaml:"scanline,omitempty" json:"scanline,omitempty"`
}

// DefaultPixelDifferenceParams returns the canonical settings: l2 norm,
// timestep one, whole image, raw data.
func DefaultPixelDifferenceParams() PixelDifferenceParams {
	return PixelDifferenceParams{
		Norm:     NormL2,
		Timestep: 1,
		Mask:     MaskWhole,
	}
}

func (p PixelDifferenceParams) Algorithm() Algorithm {
	if p.Scanline {
		return AlgoScanlinePixelDifference
	}
	return AlgoPixelDifference
}

func (p PixelDifferenceParams) Validate() error {
	switch p.Norm {
	case NormL1, NormL2:
	default:
		return fmt.Errorf("unrecognised norm %q", p.Norm)
	}
	if p.Timestep < 1 {
		return fmt.Errorf("timestep %d, must be a positive integer", p.Timestep)
	}
	if p.MaskImages {
		switch p.Mask {
		case MaskTop, MaskBottom, MaskWhole:
		default:
			return fmt.Errorf("unrecognised image mask %q", p.Mask)
		}
	}
	return nil
}

func (p PixelDifferenceParams) ParamMap() dataset.ParamMap {
	mask := p.Mask
	if !p.MaskImages || mask == "" {
		mask = MaskWhole
	}
	return dataset.ParamMap{
		"norm":         string(p.Norm),
		"timestep":     strconv.Itoa(p.Timestep),
		"interpolated": strconv.FormatBool(p.UseInterpolatedData),
		"mask":         string(mask),
	}
}

// OpticalFlowParams configures the phase correlation flow estimator.
type OpticalFlowParams struct {
	Timestep int `yaml:"timestep" json:"timestep"`

	// VectorOutput keeps the (dx, dy) displacement per time step instead
	// of collapsing it to a magnitude.
	VectorOutput bool `yaml:"vector_output" json:"vector_output"`
}

// DefaultOpticalFlowParams returns timestep one, magnitude output.
func DefaultOpticalFlowParams() OpticalFlowParams {
	return OpticalFlowParams{Timestep: 1}
}

func (p OpticalFlowParams) Algorithm() Algorithm { return AlgoOpticalFlow }

func (p OpticalFlowParams) Validate() error {
	if p.Timestep < 1 {
		return fmt.Errorf("timestep %d, must be a positive integer", p.Timestep)
	}
	return nil
}

func (p OpticalFlowParams) ParamMap() dataset.ParamMap {
	return dataset.ParamMap{
		"timestep":      strconv.Itoa(p.Timestep),
		"vector_output": strconv.FormatBool(p.VectorOutput),
	}
}

// AggregateMethod selects the reduction applied over the time axis.
type AggregateMethod string

const (
	AggregateMean   AggregateMethod = "mean"
	AggregateMedian AggregateMethod = "median"
	AggregateStd    AggregateMethod = "std"
)

// AggregateImageParams configures the time-axis reduction into a single
// image.
type AggregateImageParams struct {
	Method AggregateMethod `yaml:"method" json:"method"`
}

// DefaultAggregateImageParams returns the mean image.
func DefaultAggregateImageParams() AggregateImageParams {
	return AggregateImageParams{Method: AggregateMean}
}

func (p AggregateImageParams) Algorithm() Algorithm { return AlgoAggregateImage }

func (p AggregateImageParams) Validate() error {
	switch p.Method {
	case AggregateMean, AggregateMedian, AggregateStd:
		return nil
	default:
		return fmt.Errorf("unrecognised aggregate method %q", p.Method)
	}
}

func (p AggregateImageParams) ParamMap() dataset.ParamMap {
	return dataset.ParamMap{"method": string(p.Method)}
}

// PCAParams configures principal component analysis over the frames of a
// modality.
type PCAParams struct {
	NumComponents int `yaml:"num_components" json:"num_components"`
}

// DefaultPCAParams keeps the first two components.
func DefaultPCAParams() PCAParams {
	return PCAParams{NumComponents: 2}
}

func (p PCAParams) Algorithm() Algorithm { return AlgoPCA }

func (p PCAParams) Validate() error {
	if p.NumComponents < 1 {
		return fmt.Errorf("num_components %d, must be a positive integer", p.NumComponents)
	}
	return nil
}

func (p PCAParams) ParamMap() dataset.ParamMap {
	return dataset.ParamMap{"num_components": strconv.Itoa(p.NumComponents)}
}

// DerivedName generates the stable artifact name for a derived modality or
// statistic: algorithm abbreviation, the distinguishing parameters, and the
// parent name. Two artifacts derived from the same parent with equal
// parameter records get the same name and therefore resolve to the same
// cached result.
func DerivedName(params Params, parentName string) string {
	var parts []string
	switch p := params.(type) {
	case PixelDifferenceParams:
		abbrev := "PD"
		if p.Scanline {
			abbrev = "SLPD"
		}
		parts = []string{abbrev, string(p.Norm), "ts" + strconv.Itoa(p.Timestep)}
		if p.UseInterpolatedData {
			parts = append(parts, "interpolated")
		}
		if p.MaskImages && p.Mask != MaskWhole && p.Mask != "" {
			parts = append(parts, string(p.Mask))
		}
	case OpticalFlowParams:
		parts = []string{"OF", "ts" + strconv.Itoa(p.Timestep)}
		if p.VectorOutput {
			parts = append(parts, "vectors")
		}
	case AggregateImageParams:
		parts = []string{"AggregateImage", string(p.Method)}
	case PCAParams:
		parts = []string{"PCA", strconv.Itoa(p.NumComponents)}
	default:
		parts = []string{string(params.Algorithm())}
	}
	parts = append(parts, "on", parentName)
	return strings.Join(parts, " ")
}
