package moldata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	in := "smiles,a,b\nC,1.0,\nCCO, 2,3\n\nCC\n"

	rows, err := ReadRows(strings.NewReader(in), true)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"C", "1.0", ""}, {"CCO", "2", "3"}, {"CC"}}, rows)

	rows, err = ReadRows(strings.NewReader(in), false)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"smiles", "a", "b"}, rows[0])
}

func TestReadRows_Malformed(t *testing.T) {
	_, err := ReadRows(strings.NewReader("C,\"unterminated\n"), false)
	assert.Error(t, err)
}

//Personal.AI order the ending
