package daff

import "fmt"

// Metadata value type tags as stored on disk.
const (
	metadataTagBool   = 0
	metadataTagInt    = 1
	metadataTagFloat  = 2
	metadataTagString = 3
)

// metadataKind identifies the value type of one metadata entry.
type metadataKind uint8

const (
	metadataBool metadataKind = iota
	metadataInt
	metadataFloat
	metadataString
)

func (k metadataKind) String() string {
	switch k {
	case metadataBool:
		return "boolean"
	case metadataInt:
		return "integer"
	case metadataFloat:
		return "float"
	case metadataString:
		return "string"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// metadataValue is one typed entry of the metadata table.
type metadataValue struct {
	kind metadataKind
	b    bool
	i    int64
	f    float64
	s    string
}

// metadataTable holds the key/value pairs of the metadata chunk. Keys are
// unique and case-sensitive; enumeration preserves file order.
type metadataTable struct {
	keys   []string
	values map[string]metadataValue
}

func newMetadataTable() *metadataTable {
	return &metadataTable{values: make(map[string]metadataValue)}
}

// add appends an entry. Duplicate keys indicate a malformed table.
func (m *metadataTable) add(key string, v metadataValue) error {
	if _, ok := m.values[key]; ok {
		return fmt.Errorf("%w: duplicate metadata key %q", ErrCorruptedData, key)
	}

	m.keys = append(m.keys, key)
	m.values[key] = v

	return nil
}

func (m *metadataTable) has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// lookup fetches an entry and checks that it holds the requested value type.
func (m *metadataTable) lookup(key string, kind metadataKind) (metadataValue, error) {
	v, ok := m.values[key]
	if !ok {
		return metadataValue{}, fmt.Errorf("%w: %q", ErrMetadataNotFound, key)
	}

	if v.kind != kind {
		return metadataValue{}, fmt.Errorf("%w: %q holds a %s value, not a %s", ErrMetadataNotFound, key, v.kind, kind)
	}

	return v, nil
}

func (m *metadataTable) boolValue(key string) (bool, error) {
	v, err := m.lookup(key, metadataBool)
	if err != nil {
		return false, err
	}

	return v.b, nil
}

func (m *metadataTable) intValue(key string) (int64, error) {
	v, err := m.lookup(key, metadataInt)
	if err != nil {
		return 0, err
	}

	return v.i, nil
}

func (m *metadataTable) floatValue(key string) (float64, error) {
	v, err := m.lookup(key, metadataFloat)
	if err != nil {
		return 0, err
	}

	return v.f, nil
}

func (m *metadataTable) stringValue(key string) (string, error) {
	v, err := m.lookup(key, metadataString)
	if err != nil {
		return "", err
	}

	return v.s, nil
}
