package input

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sethhall/matchy/internal/mmdbdata"
)

type mispEvent struct {
	Event struct {
		Attribute []mispAttribute `json:"Attribute"`
	} `json:"Event"`
}

type mispAttribute struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
}

var mispIPTypes = map[string]bool{
	"ip-src": true,
	"ip-dst": true,
}

var mispLiteralTypes = map[string]bool{
	"domain": true,
	"md5":    true,
	"sha1":   true,
	"sha256": true,
	"url":    true,
}

// ParseMISP reads one MISP event's Attribute array (spec §6.4). Each
// attribute's Type selects an IP or Literal hint; a value containing
// glob metacharacters overrides that to Glob, since a MISP `url` or
// `domain` attribute can itself carry a wildcard pattern.
func ParseMISP(r io.Reader) ([]RawEntry, error) {
	var event mispEvent
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return nil, fmt.Errorf("input: decoding MISP event: %w", err)
	}

	entries := make([]RawEntry, 0, len(event.Event.Attribute))
	for _, attr := range event.Event.Attribute {
		if attr.Value == "" {
			continue
		}

		hint := HintAuto
		switch {
		case strings.ContainsAny(attr.Value, "*?["):
			hint = HintGlob
		case mispIPTypes[attr.Type]:
			hint = HintIP
		case mispLiteralTypes[attr.Type]:
			hint = HintLiteral
		}

		payload := mmdbdata.Map([]mmdbdata.Entry{
			{Key: "type", Value: mmdbdata.String(attr.Type)},
			{Key: "category", Value: mmdbdata.String(attr.Category)},
			{Key: "comment", Value: mmdbdata.String(attr.Comment)},
		})
		entries = append(entries, RawEntry{Hint: hint, Key: attr.Value, Payload: payload})
	}
	return entries, nil
}
