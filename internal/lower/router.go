package lower

import (
	"fmt"

	"github.com/roach88/neurasm/internal/ir"
)

// Router head keys as they appear in router_table rows.
const (
	headInstant     = "S"
	headPacketSize  = "T"
	headFinish      = "P"
	headRelay       = "Q"
	headDX          = "X"
	headDY          = "Y"
	headDestination = "A"
)

var packetSizeModes = map[int64]ir.PacketSizeMode{
	0: ir.PacketMulti,
	1: ir.PacketSingle,
}

var relayTypes = map[int64]ir.RelayType{
	0: ir.RelayNone,
	1: ir.RelayMulticast,
}

// lowerHeads converts routing table rows in declared order.
func lowerHeads(table []map[string]int64) ([]ir.RouterHead, error) {
	heads := make([]ir.RouterHead, 0, len(table))
	for i, row := range table {
		field := fmt.Sprintf("router_table[%d]", i)

		mode, ok := packetSizeModes[row[headPacketSize]]
		if !ok {
			return nil, domainErr(CodeEnumCode, field+"."+headPacketSize,
				"packet size mode %d outside 0..1", row[headPacketSize])
		}
		relay, ok := relayTypes[row[headRelay]]
		if !ok {
			return nil, domainErr(CodeEnumCode, field+"."+headRelay,
				"relay type %d outside 0..1", row[headRelay])
		}

		heads = append(heads, ir.RouterHead{
			IsInstantRequest: row[headInstant] != 0,
			PacketSizeMode:   mode,
			IsPacketFinish:   row[headFinish] != 0,
			RelayType:        relay,
			DX:               row[headDX],
			DY:               row[headDY],
			Destination:      row[headDestination],
			PackPerRhead:     optional(row, "pack_per_Rhead"),
			AOffset:          optional(row, "A_offset"),
			Const:            optional(row, "Const"),
			Enable:           optional(row, "EN"),
		})
	}
	return heads, nil
}

func optional(row map[string]int64, key string) *int64 {
	v, ok := row[key]
	if !ok {
		return nil
	}
	return &v
}
