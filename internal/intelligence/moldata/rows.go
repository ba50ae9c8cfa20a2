package moldata

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// ReadRows reads comma-separated molecule rows.  Rows may differ in length;
// blank lines are skipped.  When skipHeader is set the first record is
// dropped.
func ReadRows(r io.Reader, skipHeader bool) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	var rows [][]string
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam, "reading molecule rows")
		}
		if first {
			first = false
			if skipHeader {
				continue
			}
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

//Personal.AI order the ending
