package input

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sethhall/matchy/internal/mmdbdata"
)

// ParseCSV reads a comma-delimited stream with a required header row.
// The first column must be named "entry" or "key"; every remaining
// column becomes a string field of the entry's map payload, keyed by
// its header name (spec §6.4).
func ParseCSV(r io.Reader) ([]RawEntry, error) {
	return parseDelimited(csv.NewReader(r))
}

func parseDelimited(cr *csv.Reader) ([]RawEntry, error) {
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("input: reading header: %w", err)
	}
	if len(header) == 0 || (header[0] != "entry" && header[0] != "key") {
		return nil, fmt.Errorf("input: first column must be named %q or %q", "entry", "key")
	}

	var entries []RawEntry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("input: reading record: %w", err)
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}

		fields := make([]mmdbdata.Entry, 0, len(header)-1)
		for i := 1; i < len(header) && i < len(record); i++ {
			fields = append(fields, mmdbdata.Entry{Key: header[i], Value: mmdbdata.String(record[i])})
		}
		entries = append(entries, RawEntry{Key: record[0], Payload: mmdbdata.Map(fields)})
	}
	return entries, nil
}
