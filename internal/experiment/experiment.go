// Package experiment is the in-memory container of spectra handed to and
// returned from PeakInvestigator.
package experiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// SpectrumType tells whether a spectrum holds raw profile data or picked peaks
type SpectrumType string

// Spectrum types
const (
	SpectrumTypeUnknown SpectrumType = ""
	SpectrumTypeProfile SpectrumType = "profile"
	SpectrumTypePeaks   SpectrumType = "peaks"
)

// ProcessingAction names a data processing step
type ProcessingAction string

// ProcessingPeakPicking is recorded on spectra returned by FETCH
const ProcessingPeakPicking ProcessingAction = "peak_picking"

// Peak is one m/z and intensity pair
type Peak struct {
	MZ        float64 `json:"mz"`
	Intensity float64 `json:"intensity"`
}

// DataProcessing is provenance attached to a spectrum
type DataProcessing struct {
	Software       string             `json:"software"`
	Actions        []ProcessingAction `json:"actions"`
	CompletionTime time.Time          `json:"completion_time"`
	Meta           map[string]string  `json:"meta,omitempty"`
}

// Spectrum is a single scan
type Spectrum struct {
	Index          int               `json:"index"`
	MSLevel        int               `json:"ms_level,omitempty"`
	RetentionTime  float64           `json:"retention_time,omitempty"`
	Type           SpectrumType      `json:"type"`
	Peaks          []Peak            `json:"peaks"`
	DataProcessing []DataProcessing  `json:"data_processing,omitempty"`
	Meta           map[string]string `json:"meta,omitempty"`
}

// Experiment is an ordered collection of spectra plus free-form metadata
type Experiment struct {
	Spectra []Spectrum        `json:"spectra"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Validate checks that the experiment can be submitted: it must contain
// data and must not already be peak picked.
func (e *Experiment) Validate() error {
	if e == nil || len(e.Spectra) == 0 {
		return errors.New("the experiment does not contain any m/z-intensity data points")
	}
	empty := true
	for _, s := range e.Spectra {
		if len(s.Peaks) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return errors.New("the experiment does not contain any m/z-intensity data points")
	}
	if e.Spectra[0].Type == SpectrumTypePeaks {
		return errors.New("the experiment is not profile data")
	}
	return nil
}

// MassBounds returns the smallest and largest m/z across all spectra
func (e *Experiment) MassBounds() (types.MassBounds, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range e.Spectra {
		for _, p := range s.Peaks {
			lo = math.Min(lo, p.MZ)
			hi = math.Max(hi, p.MZ)
		}
	}
	if math.IsInf(lo, 1) {
		return types.MassBounds{}, errors.New("no peaks to derive mass bounds from")
	}
	b := types.MassBounds{Min: lo, Max: hi}
	return b, b.Validate()
}

// ClearPeaks drops the bulk data of every spectrum while keeping its settings
func (e *Experiment) ClearPeaks() {
	for i := range e.Spectra {
		e.Spectra[i].Peaks = nil
	}
}

// MetaValue returns a metadata value, empty when missing
func (e *Experiment) MetaValue(key string) string {
	if e.Meta == nil {
		return ""
	}
	return e.Meta[key]
}

// SetMetaValue stores a metadata value
func (e *Experiment) SetMetaValue(key, value string) {
	if e.Meta == nil {
		e.Meta = make(map[string]string)
	}
	e.Meta[key] = value
}

// LoadFile reads an experiment saved as JSON
func LoadFile(path string) (*Experiment, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("error reading experiment: %w", err)
	}
	var exp Experiment
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("error decoding experiment %s: %w", path, err)
	}
	return &exp, nil
}

// SaveFile writes the experiment as indented JSON
func SaveFile(path string, exp *Experiment) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding experiment: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("error writing experiment: %w", err)
	}
	return nil
}
