package moldata

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// ReplaceNaNToken is written wherever a transformed feature is not finite.
const ReplaceNaNToken = 0.0

// StandardScaler standardizes feature columns to zero mean and unit variance.
// Missing (NaN) and infinite values are ignored when fitting.  A column with
// no finite values gets mean 0; a column with zero or undefined spread gets
// standard deviation 1.
type StandardScaler struct {
	Means           []float64 `json:"means"`
	Stds            []float64 `json:"stds"`
	ReplaceNaNToken float64   `json:"replace_nan_token"`
}

// NewStandardScaler returns an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{ReplaceNaNToken: ReplaceNaNToken}
}

// Fitted reports whether Fit has run.
func (s *StandardScaler) Fitted() bool { return s.Means != nil }

// Fit computes per-column statistics over the rows of x.  Every row must have
// the same length.
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return errors.Degenerate("cannot fit a scaler on zero rows")
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return errors.Newf(errors.ErrCodeConfiguration, "feature row %d has length %d, expected %d", i, len(row), width)
		}
	}

	s.Means = make([]float64, width)
	s.Stds = make([]float64, width)
	col := make([]float64, 0, len(x))
	for j := 0; j < width; j++ {
		col = col[:0]
		for _, row := range x {
			if v := row[j]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				col = append(col, v)
			}
		}
		if len(col) == 0 {
			s.Means[j], s.Stds[j] = 0, 1
			continue
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if math.IsNaN(mean) {
			mean = 0
		}
		if math.IsNaN(std) || std == 0 {
			std = 1
		}
		s.Means[j], s.Stds[j] = mean, std
	}
	return nil
}

// Transform returns the standardized copy of row.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if err := s.check(row); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for j, v := range row {
		t := (v - s.Means[j]) / s.Stds[j]
		if math.IsNaN(t) || math.IsInf(t, 0) {
			t = s.ReplaceNaNToken
		}
		out[j] = t
	}
	return out, nil
}

// InverseTransform maps a standardized row back to the original scale.
func (s *StandardScaler) InverseTransform(row []float64) ([]float64, error) {
	if err := s.check(row); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for j, v := range row {
		t := v*s.Stds[j] + s.Means[j]
		if math.IsNaN(t) || math.IsInf(t, 0) {
			t = s.ReplaceNaNToken
		}
		out[j] = t
	}
	return out, nil
}

func (s *StandardScaler) check(row []float64) error {
	if !s.Fitted() {
		return errors.InvalidState("scaler has not been fitted")
	}
	if len(row) != len(s.Means) {
		return errors.Newf(errors.ErrCodeConfiguration, "feature row has length %d, scaler expects %d", len(row), len(s.Means))
	}
	return nil
}

//Personal.AI order the ending
