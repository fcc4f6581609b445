package input

import (
	"encoding/csv"
	"io"
)

// ParseTSV reads a tab-delimited stream with the same header
// convention as ParseCSV (spec §6.4).
func ParseTSV(r io.Reader) ([]RawEntry, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	return parseDelimited(cr)
}
