package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/adx-tools/adx/pkg/types"
)

// Mode controls how Decode treats top-level keys outside the schema.
type Mode int

const (
	// Strict rejects documents with unknown top-level keys.
	Strict Mode = iota
	// Lenient ignores unknown top-level keys.
	Lenient
)

// Top-level keys defined by the interchange schema.
const (
	keySchemaVersion = "schema_version"
	keyBinaryID      = "binary_identifier"
	keyBaseAddress   = "base_address"
	keyFunctions     = "functions"
	keyNames         = "names"
	keyComments      = "comments"
	keyStructures    = "structures"
)

// requiredKeys must be present in every document. binary_identifier is
// advisory and may be absent.
var requiredKeys = []string{
	keySchemaVersion, keyBaseAddress, keyFunctions, keyNames, keyComments, keyStructures,
}

// Encode serializes a record model to canonical JSON: decimal string address
// keys sorted numerically, structure identifiers sorted lexically, ascending
// functions array, two-space indent. Top-level keys are written in fixed
// schema order (version, identifier, base, then the four categories) rather
// than lexically, so related metadata stays at the head of the file; the
// order never varies, and encoding the same model twice yields
// byte-identical output.
func Encode(m *types.RecordModel) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")

	fmt.Fprintf(&buf, "  %q: %d,\n", keySchemaVersion, m.SchemaVersion)
	fmt.Fprintf(&buf, "  %q: %s,\n", keyBinaryID, jsonString(m.BinaryID))
	fmt.Fprintf(&buf, "  %q: %d,\n", keyBaseAddress, m.BaseAddress)

	buf.WriteString("  \"functions\": [")
	for i, addr := range m.Functions {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.FormatUint(addr, 10))
	}
	buf.WriteString("],\n")

	encodeAddrMap(&buf, keyNames, m.Names, m.SortedNameAddrs())
	buf.WriteString(",\n")
	encodeAddrMap(&buf, keyComments, m.Comments, m.SortedCommentAddrs())
	buf.WriteString(",\n")
	encodeStructures(&buf, m)

	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func encodeAddrMap(buf *bytes.Buffer, key string, values map[uint64]string, addrs []uint64) {
	fmt.Fprintf(buf, "  %q: {", key)
	for i, addr := range addrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n    ")
		fmt.Fprintf(buf, "%q: %s", strconv.FormatUint(addr, 10), jsonString(values[addr]))
	}
	if len(addrs) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteByte('}')
}

func encodeStructures(buf *bytes.Buffer, m *types.RecordModel) {
	fmt.Fprintf(buf, "  %q: {", keyStructures)
	ids := m.SortedStructureIDs()
	for i, id := range ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "\n    %s: [", jsonString(id))
		for j, member := range m.Structures[id] {
			if j > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, "\n      {\"offset\": %d, \"size\": %d, \"type_name\": %s, \"member_name\": %s}",
				member.Offset, member.Size, jsonString(member.TypeName), jsonString(member.MemberName))
		}
		if len(m.Structures[id]) > 0 {
			buf.WriteString("\n    ")
		}
		buf.WriteByte(']')
	}
	if len(ids) > 0 {
		buf.WriteString("\n  ")
	}
	buf.WriteByte('}')
}

// jsonString renders s as a JSON string literal.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Decode parses an interchange document. Decoding is all-or-nothing: on any
// error the returned model is nil and nothing is partially populated.
//
// SchemaError: unrecognized schema_version, missing required key, or (in
// Strict mode) an unknown top-level key. MalformedDataError: a value with the
// wrong shape, a negative address, or a non-integer where one is required.
func Decode(data []byte, mode Mode) (*types.RecordModel, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, &types.MalformedDataError{Reason: "document is not a JSON object: " + err.Error()}
	}

	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, &types.SchemaError{Reason: fmt.Sprintf("missing required key %q", key)}
		}
	}
	if mode == Strict {
		for key := range raw {
			if !isSchemaKey(key) {
				return nil, &types.SchemaError{Reason: fmt.Sprintf("unknown top-level key %q", key)}
			}
		}
	}

	version, err := decodeInt(raw[keySchemaVersion], keySchemaVersion)
	if err != nil {
		return nil, err
	}
	if version != types.CurrentSchemaVersion {
		return nil, &types.SchemaError{Reason: fmt.Sprintf("unrecognized schema_version %d", version)}
	}

	binaryID := ""
	if rawID, ok := raw[keyBinaryID]; ok {
		if err := json.Unmarshal(rawID, &binaryID); err != nil {
			return nil, &types.MalformedDataError{Field: keyBinaryID, Reason: "expected string"}
		}
	}

	base, err := decodeInt(raw[keyBaseAddress], keyBaseAddress)
	if err != nil {
		return nil, err
	}

	m := types.NewRecordModel(binaryID, base)
	m.SchemaVersion = int(version)

	if err := decodeFunctions(raw[keyFunctions], m); err != nil {
		return nil, err
	}
	if m.Names, err = decodeAddrMap(raw[keyNames], keyNames); err != nil {
		return nil, err
	}
	if m.Comments, err = decodeAddrMap(raw[keyComments], keyComments); err != nil {
		return nil, err
	}
	if err := decodeStructures(raw[keyStructures], m); err != nil {
		return nil, err
	}
	return m, nil
}

func isSchemaKey(key string) bool {
	switch key {
	case keySchemaVersion, keyBinaryID, keyBaseAddress, keyFunctions, keyNames, keyComments, keyStructures:
		return true
	}
	return false
}

func decodeFunctions(data json.RawMessage, m *types.RecordModel) error {
	var items []json.Number
	if err := json.Unmarshal(data, &items); err != nil {
		return &types.MalformedDataError{Field: keyFunctions, Reason: "expected array of integers"}
	}
	for _, item := range items {
		addr, err := parseUint(item.String(), keyFunctions)
		if err != nil {
			return err
		}
		m.AddFunction(addr)
	}
	return nil
}

func decodeAddrMap(data json.RawMessage, field string) (map[uint64]string, error) {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &types.MalformedDataError{Field: field, Reason: "expected object"}
	}
	parsed := make(map[uint64]string, len(items))
	for key, rawVal := range items {
		addr, err := parseUint(key, field)
		if err != nil {
			return nil, err
		}
		var val string
		if err := json.Unmarshal(rawVal, &val); err != nil {
			return nil, &types.MalformedDataError{
				Field:  field,
				Reason: fmt.Sprintf("value at %q must be a string", key),
			}
		}
		parsed[addr] = val
	}
	return parsed, nil
}

func decodeStructures(data json.RawMessage, m *types.RecordModel) error {
	var items map[string][]map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return &types.MalformedDataError{Field: keyStructures, Reason: "expected object of member arrays"}
	}
	for id, rawMembers := range items {
		members := make([]types.StructMember, 0, len(rawMembers))
		for _, rawMember := range rawMembers {
			member, err := decodeMember(rawMember, keyStructures+"."+id)
			if err != nil {
				return err
			}
			members = append(members, member)
		}
		m.Structures[id] = members
	}
	return nil
}

func decodeMember(raw map[string]json.RawMessage, field string) (types.StructMember, error) {
	var member types.StructMember
	var err error

	offsetRaw, ok := raw["offset"]
	if !ok {
		return member, &types.MalformedDataError{Field: field, Reason: "member missing offset"}
	}
	if member.Offset, err = decodeInt(offsetRaw, field+".offset"); err != nil {
		return member, err
	}

	sizeRaw, ok := raw["size"]
	if !ok {
		return member, &types.MalformedDataError{Field: field, Reason: "member missing size"}
	}
	if member.Size, err = decodeInt(sizeRaw, field+".size"); err != nil {
		return member, err
	}

	// String fields default to empty when absent; a present non-string is an
	// error.
	if rawType, ok := raw["type_name"]; ok {
		if err := json.Unmarshal(rawType, &member.TypeName); err != nil {
			return member, &types.MalformedDataError{Field: field + ".type_name", Reason: "expected string"}
		}
	}
	if rawName, ok := raw["member_name"]; ok {
		if err := json.Unmarshal(rawName, &member.MemberName); err != nil {
			return member, &types.MalformedDataError{Field: field + ".member_name", Reason: "expected string"}
		}
	}
	return member, nil
}

func decodeInt(data json.RawMessage, field string) (uint64, error) {
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return 0, &types.MalformedDataError{Field: field, Reason: "expected integer"}
	}
	return parseUint(num.String(), field)
}

// parseUint parses a decimal integer, rejecting negatives and non-integers.
func parseUint(s, field string) (uint64, error) {
	val, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if strings.HasPrefix(s, "-") {
			return 0, &types.MalformedDataError{Field: field, Reason: fmt.Sprintf("negative value %s", s)}
		}
		return 0, &types.MalformedDataError{Field: field, Reason: fmt.Sprintf("%q is not a non-negative integer", s)}
	}
	return val, nil
}
