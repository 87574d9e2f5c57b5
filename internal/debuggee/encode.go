package debuggee

import (
	"encoding/binary"
	"math"
)

// ElementSize returns how many bytes the value occupies as an array element.
// Strings report their own length including the terminator.
func (v Value) ElementSize() int {
	switch v.Type {
	case TypeStr:
		return len(v.Str) + 1
	case TypeDouble:
		return 8
	case TypeLabel, TypeInt, TypeStruct, TypeComObj:
		return 4
	default:
		return 0
	}
}

// DataSize is the size of the first element.
func (v *Var) DataSize() int {
	if len(v.Elems) == 0 {
		return 0
	}
	return v.Elems[0].ElementSize()
}

// Block lays the elements out the way the debuggee stores them, for memory dumps.
func (v *Var) Block() []byte {
	var buf []byte
	for _, e := range v.Elems {
		switch e.Type {
		case TypeStr:
			buf = append(buf, e.Str...)
			buf = append(buf, 0)
		case TypeDouble:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(e.Double))
		case TypeInt:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Int))
		case TypeLabel:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(e.Label.ID)))
		case TypeStruct, TypeComObj:
			flag := uint32(0)
			if e.Flex != nil {
				flag = 1
			}
			buf = binary.LittleEndian.AppendUint32(buf, flag)
		}
	}
	return buf
}
