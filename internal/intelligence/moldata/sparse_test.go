package moldata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

func TestParseLabel(t *testing.T) {
	l, err := ParseLabel("1.5")
	require.NoError(t, err)
	assert.Equal(t, Some(1.5), l)

	l, err = ParseLabel("")
	require.NoError(t, err)
	assert.False(t, l.Valid)

	l, err = ParseLabel("  ")
	require.NoError(t, err)
	assert.False(t, l.Valid)

	_, err = ParseLabel("abc")
	assert.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestLabel_JSON(t *testing.T) {
	data, err := json.Marshal([]Label{Some(2), Null})
	require.NoError(t, err)
	assert.JSONEq(t, `[2, null]`, string(data))

	var back []Label
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Label{Some(2), Null}, back)
}

func TestSparseLabelArray_Get(t *testing.T) {
	src := []Label{Some(1), Null, Some(-3.5), Null}
	s := NewSparseLabelArray(src)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 2, s.NumSet())
	for i, want := range src {
		got, err := s.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, got, "index %d", i)
	}
}

func TestSparseLabelArray_OutOfRange(t *testing.T) {
	s := NewSparseLabelArray([]Label{Some(1), Null})

	_, err := s.Get(2)
	require.Error(t, err)
	assert.True(t, errors.IsOutOfRange(err))

	_, err = s.Get(-1)
	assert.True(t, errors.IsOutOfRange(err))
}

func TestSparseLabelArray_AllNull(t *testing.T) {
	s := NewSparseLabelArray([]Label{Null, Null, Null})
	assert.Equal(t, 3, s.Len())
	assert.Zero(t, s.NumSet())
	l, err := s.Get(2)
	require.NoError(t, err)
	assert.False(t, l.Valid)
}

func TestSparseLabelArray_DenseAndJSON(t *testing.T) {
	src := []Label{Null, Some(4), Null}
	s := NewSparseLabelArray(src)
	assert.Equal(t, src, s.Dense())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 4, null]`, string(data))

	var back SparseLabelArray
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 3, back.Len())
	assert.Equal(t, src, back.Dense())
}

//Personal.AI order the ending
