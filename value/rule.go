package value

import (
	"encoding/binary"
	"fmt"
)

// Rule is a host-minted resource handle: (type_tag uint16, id uint32). The
// VM only ever holds a handle; the host owns the underlying resource
// (spec.md §3.5). id == 0 is the reserved "no rule" sentinel; the allocator
// mints ids starting at 1.
type Rule struct {
	TypeTag uint16
	ID      uint32
}

// RuleTypeTag is fixed at 1 in this spec; reserved for host extension.
const RuleTypeTag uint16 = 1

// IsNone reports whether r is the sentinel "no rule" handle.
func (r Rule) IsNone() bool { return r.ID == 0 }

// String renders the implementation-defined "<rule:<id>>" form of spec.md §6.3.
func (r Rule) String() string {
	return fmt.Sprintf("<rule:%d>", r.ID)
}

// ruleEncodedLen is the packed wire size of a Rule: 2 bytes type_tag + 4
// bytes id, little-endian (spec.md §6.4).
const ruleEncodedLen = 6

// MarshalBinary encodes r as little-endian (type_tag, id), packed.
func (r Rule) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ruleEncodedLen)
	binary.LittleEndian.PutUint16(buf[0:2], r.TypeTag)
	binary.LittleEndian.PutUint32(buf[2:6], r.ID)
	return buf, nil
}

// UnmarshalBinary decodes a Rule from the little-endian packed form written
// by MarshalBinary.
func (r *Rule) UnmarshalBinary(data []byte) error {
	if len(data) != ruleEncodedLen {
		return fmt.Errorf("value: invalid rule encoding length %d, want %d", len(data), ruleEncodedLen)
	}
	r.TypeTag = binary.LittleEndian.Uint16(data[0:2])
	r.ID = binary.LittleEndian.Uint32(data[2:6])
	return nil
}
