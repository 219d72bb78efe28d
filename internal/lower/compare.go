package lower

import (
	"fmt"

	"github.com/roach88/neurasm/internal/ir"
)

// DecomposeCompare splits a compare_init value into the per-lane values the
// soma compares against. The input is masked to 32 bits and read MSB first:
//
//	INT_32          one signed 32-bit value
//	INT_8, UINT_8   four signed 8-bit lanes
//	TERNARY         sixteen 2-bit lanes; raw 3 → -1, raw 2 → -2
func DecomposeCompare(v int64, p ir.Precision) ([]int64, error) {
	word := uint32(v)
	switch p {
	case ir.PrecisionInt32:
		return []int64{int64(int32(word))}, nil
	case ir.PrecisionInt8, ir.PrecisionUint8:
		out := make([]int64, 4)
		for i := range out {
			shift := uint(24 - 8*i)
			out[i] = int64(int8(word >> shift))
		}
		return out, nil
	case ir.PrecisionTernary:
		out := make([]int64, 16)
		for i := range out {
			shift := uint(30 - 2*i)
			switch raw := int64((word >> shift) & 0x3); raw {
			case 3:
				out[i] = -1
			case 2:
				out[i] = -2
			default:
				out[i] = raw
			}
		}
		return out, nil
	default:
		return nil, domainErr(CodeComparePrecision, "compare_init",
			"cannot decompose for precision %q", p)
	}
}

// ComposeCompare is the inverse of DecomposeCompare; it returns the masked
// 32-bit pattern.
func ComposeCompare(lanes []int64, p ir.Precision) (uint32, error) {
	var want, bits int
	switch p {
	case ir.PrecisionInt32:
		want, bits = 1, 32
	case ir.PrecisionInt8, ir.PrecisionUint8:
		want, bits = 4, 8
	case ir.PrecisionTernary:
		want, bits = 16, 2
	default:
		return 0, domainErr(CodeComparePrecision, "compare_init",
			"cannot compose for precision %q", p)
	}
	if len(lanes) != want {
		return 0, fmt.Errorf("compose %s: expected %d lanes, got %d", p, want, len(lanes))
	}

	mask := uint32(1)<<uint(bits) - 1
	if bits == 32 {
		mask = 0xFFFFFFFF
	}
	var word uint32
	for _, lane := range lanes {
		word = word<<uint(bits%32) | uint32(lane)&mask
	}
	return word, nil
}
