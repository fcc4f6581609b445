package mmdbdata

import "fmt"

// MetadataMarker is the 14-byte sequence MMDB metadata maps are always
// found immediately after (spec §6.1 item 4).
var MetadataMarker = []byte("\xab\xcd\xef" + "MaxMind.com")

// Metadata mirrors the MMDB metadata map, extended with Matchy's own
// keys (spec §6.1 item 5).
type Metadata struct {
	BinaryFormatMajorVersion uint16
	BinaryFormatMinorVersion uint16
	BuildEpoch               uint64
	DatabaseType             string
	Description              map[string]string
	IPVersion                uint16
	Languages                []string
	NodeCount                uint32
	RecordSize               uint16

	// Matchy extensions.
	MatchMode            string // "case_sensitive" | "case_insensitive"
	MatchyFormatVersion  uint16
}

// ToValue encodes the metadata as an ordered MMDB map, with keys in a
// fixed, deterministic order (spec §4.1 "Determinism").
func (m Metadata) ToValue() Value {
	descEntries := make([]Entry, 0, len(m.Description))
	for _, lang := range sortedKeys(m.Description) {
		descEntries = append(descEntries, Entry{Key: lang, Value: String(m.Description[lang])})
	}

	langVals := make([]Value, 0, len(m.Languages))
	for _, l := range m.Languages {
		langVals = append(langVals, String(l))
	}

	return Map([]Entry{
		{Key: "binary_format_major_version", Value: Uint16(m.BinaryFormatMajorVersion)},
		{Key: "binary_format_minor_version", Value: Uint16(m.BinaryFormatMinorVersion)},
		{Key: "build_epoch", Value: Uint64(m.BuildEpoch)},
		{Key: "database_type", Value: String(m.DatabaseType)},
		{Key: "description", Value: Map(descEntries)},
		{Key: "ip_version", Value: Uint16(m.IPVersion)},
		{Key: "languages", Value: Array(langVals)},
		{Key: "node_count", Value: Uint32(m.NodeCount)},
		{Key: "record_size", Value: Uint16(m.RecordSize)},
		{Key: "match_mode", Value: String(m.MatchMode)},
		{Key: "matchy_format_version", Value: Uint16(m.MatchyFormatVersion)},
	})
}

// MetadataFromValue decodes a Metadata struct out of a decoded map
// Value, failing if required keys are absent or mistyped.
func MetadataFromValue(v Value) (Metadata, error) {
	if v.Kind != KindMap {
		return Metadata{}, fmt.Errorf("mmdbdata: metadata is not a map")
	}

	var m Metadata
	var err error

	m.BinaryFormatMajorVersion, err = reqUint16(v, "binary_format_major_version", err)
	m.BinaryFormatMinorVersion, err = reqUint16(v, "binary_format_minor_version", err)
	m.BuildEpoch, err = reqUint64(v, "build_epoch", err)
	m.DatabaseType, err = reqString(v, "database_type", err)
	m.IPVersion, err = reqUint16(v, "ip_version", err)
	m.NodeCount, err = reqUint32(v, "node_count", err)
	m.RecordSize, err = reqUint16(v, "record_size", err)
	if err != nil {
		return Metadata{}, err
	}

	if desc, ok := v.Get("description"); ok && desc.Kind == KindMap {
		m.Description = make(map[string]string, len(desc.Map))
		for _, e := range desc.Map {
			if e.Value.Kind == KindString {
				m.Description[e.Key] = e.Value.Str
			}
		}
	}

	if langs, ok := v.Get("languages"); ok && langs.Kind == KindArray {
		for _, l := range langs.Array {
			if l.Kind == KindString {
				m.Languages = append(m.Languages, l.Str)
			}
		}
	}

	if mm, ok := v.Get("match_mode"); ok && mm.Kind == KindString {
		m.MatchMode = mm.Str
	}
	if fv, ok := v.Get("matchy_format_version"); ok && fv.Kind == KindUint16 {
		m.MatchyFormatVersion = fv.U16
	}

	return m, nil
}

func reqUint16(v Value, key string, prior error) (uint16, error) {
	if prior != nil {
		return 0, prior
	}
	f, ok := v.Get(key)
	if !ok || f.Kind != KindUint16 {
		return 0, fmt.Errorf("mmdbdata: metadata missing required uint16 key %q", key)
	}
	return f.U16, nil
}

func reqUint32(v Value, key string, prior error) (uint32, error) {
	if prior != nil {
		return 0, prior
	}
	f, ok := v.Get(key)
	if !ok || f.Kind != KindUint32 {
		return 0, fmt.Errorf("mmdbdata: metadata missing required uint32 key %q", key)
	}
	return f.U32, nil
}

func reqUint64(v Value, key string, prior error) (uint64, error) {
	if prior != nil {
		return 0, prior
	}
	f, ok := v.Get(key)
	if !ok || f.Kind != KindUint64 {
		return 0, fmt.Errorf("mmdbdata: metadata missing required uint64 key %q", key)
	}
	return f.U64, nil
}

func reqString(v Value, key string, prior error) (string, error) {
	if prior != nil {
		return "", prior
	}
	f, ok := v.Get(key)
	if !ok || f.Kind != KindString {
		return "", fmt.Errorf("mmdbdata: metadata missing required string key %q", key)
	}
	return f.Str, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	insertionSortStrings(keys)
	return keys
}

// insertionSortStrings avoids importing sort for a handful of language
// tags; description maps are always small (a handful of locales).
func insertionSortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
