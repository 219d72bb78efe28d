package lower

import (
	"github.com/roach88/neurasm/internal/config"
)

// prim builds a primitive case from a field map and memory blocks.
func prim(pic int, fields map[string]int64, blocks ...config.MemoryBlock) *config.PrimitiveCase {
	if fields == nil {
		fields = map[string]int64{}
	}
	return &config.PrimitiveCase{PIC: pic, Fields: fields, MemoryBlocks: blocks}
}

func block(start int64, data ...int64) config.MemoryBlock {
	return config.MemoryBlock{Start: start, Data: data}
}

// mlpCase is the axon 0x04 case used across tests: every operand declared,
// vector bias, one memory block per static operand.
func mlpCase() *config.PrimitiveCase {
	return prim(config.PICMLP, map[string]int64{
		"x1_base_addr":   0x0000,
		"x2_base_addr":   0x4000,
		"bias_base_addr": 0x0C00,
		"o_base_addr":    0x2000,
		"x1_precision":   1,
		"x2_precision":   3,
		"bias_type":      2,
		"cin":            64,
		"cout":           32,
		"Write_V_length": 256,
	},
		block(0x0000, 1, 2, 3, 4),
		block(0x4000, 5, 6),
		block(0x0C00, 7),
	)
}
