package moldata

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// Label is an optional float target.  The zero value is the null label.
type Label struct {
	Value float64
	Valid bool
}

// Some returns a set label.
func Some(v float64) Label { return Label{Value: v, Valid: true} }

// Null is the unset label.
var Null = Label{}

// ParseLabel converts a raw CSV field.  The empty string is the null label.
func ParseLabel(field string) (Label, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return Null, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return Null, errors.Wrap(err, errors.CodeInvalidParam, "parsing target "+strconv.Quote(field))
	}
	return Some(v), nil
}

func (l Label) String() string {
	if !l.Valid {
		return "null"
	}
	return strconv.FormatFloat(l.Value, 'g', -1, 64)
}

// MarshalJSON encodes a null label as JSON null.
func (l Label) MarshalJSON() ([]byte, error) {
	if !l.Valid || math.IsNaN(l.Value) || math.IsInf(l.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

// UnmarshalJSON decodes JSON null as the null label.
func (l *Label) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Null
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = Some(v)
	return nil
}

// SparseLabelArray is a fixed-length label vector that stores only the set
// entries.  Reading an unset index inside the declared length yields Null.
type SparseLabelArray struct {
	length  int
	entries map[int]float64
}

// NewSparseLabelArray keeps the valid entries of labels; null entries are
// never stored.
func NewSparseLabelArray(labels []Label) *SparseLabelArray {
	s := &SparseLabelArray{
		length:  len(labels),
		entries: make(map[int]float64),
	}
	for i, l := range labels {
		if l.Valid {
			s.entries[i] = l.Value
		}
	}
	return s
}

// Len returns the declared length.
func (s *SparseLabelArray) Len() int { return s.length }

// NumSet returns how many entries carry a value.
func (s *SparseLabelArray) NumSet() int { return len(s.entries) }

// Get returns the label at i.  Indices outside [0, Len()) are a range error.
func (s *SparseLabelArray) Get(i int) (Label, error) {
	if i < 0 || i >= s.length {
		return Null, errors.OutOfRange(i, s.length)
	}
	if v, ok := s.entries[i]; ok {
		return Some(v), nil
	}
	return Null, nil
}

// Dense expands the array back into a label slice.
func (s *SparseLabelArray) Dense() []Label {
	out := make([]Label, s.length)
	for i, v := range s.entries {
		out[i] = Some(v)
	}
	return out
}

// MarshalJSON encodes the array in its dense form.
func (s *SparseLabelArray) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Dense())
}

// UnmarshalJSON restores an array written by MarshalJSON.
func (s *SparseLabelArray) UnmarshalJSON(data []byte) error {
	var labels []Label
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	*s = *NewSparseLabelArray(labels)
	return nil
}

//Personal.AI order the ending
