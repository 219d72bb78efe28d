package config

import "fmt"

// Kind is the primitive variant selected by a PIC. PIC codes that share
// lowering rules (0x05 and 0x25) map to one Kind.
type Kind int

const (
	KindAxonAvgPool Kind = iota + 1
	KindAxonTensorAdd
	KindAxonMLP
	KindAxonConv
	KindAxonVecMul
	KindAxonDilatedConv
	KindAxonScale
	KindSomaCompare
	KindSomaMove
	KindSomaLUT
	KindSomaLIF
	KindSomaMoveSplit
	KindRouter
)

// PIC codes.
const (
	PICAvgPool     = 0x02
	PICTensorAdd   = 0x03
	PICMLP         = 0x04
	PICCompare     = 0x05
	PICMove        = 0x06
	PICLUT         = 0x07
	PICLIF         = 0x08
	PICRouter      = 0x09
	PICMerge       = 0x25
	PICMoveSplit   = 0x26
	PICConv        = 0x41
	PICVecMul      = 0x43
	PICDilatedConv = 0x81
	PICScale       = 0x83
)

var kindByPIC = map[int]Kind{
	PICAvgPool:     KindAxonAvgPool,
	PICTensorAdd:   KindAxonTensorAdd,
	PICMLP:         KindAxonMLP,
	PICConv:        KindAxonConv,
	PICVecMul:      KindAxonVecMul,
	PICDilatedConv: KindAxonDilatedConv,
	PICScale:       KindAxonScale,
	PICCompare:     KindSomaCompare,
	PICMerge:       KindSomaCompare,
	PICMove:        KindSomaMove,
	PICLUT:         KindSomaLUT,
	PICLIF:         KindSomaLIF,
	PICMoveSplit:   KindSomaMoveSplit,
	PICRouter:      KindRouter,
}

var kindNames = map[Kind]string{
	KindAxonAvgPool:     "axon_avg_pool",
	KindAxonTensorAdd:   "axon_tensor_add",
	KindAxonMLP:         "axon_mlp",
	KindAxonConv:        "axon_conv",
	KindAxonVecMul:      "axon_vec_mul",
	KindAxonDilatedConv: "axon_dilated_conv",
	KindAxonScale:       "axon_scale",
	KindSomaCompare:     "soma_compare",
	KindSomaMove:        "soma_move",
	KindSomaLUT:         "soma_lut",
	KindSomaLIF:         "soma_lif",
	KindSomaMoveSplit:   "soma_move_split",
	KindRouter:          "router",
}

// KindOf resolves a PIC to its Kind.
func KindOf(pic int) (Kind, bool) {
	k, ok := kindByPIC[pic]
	return k, ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsAxon reports whether the kind runs in the axon stage.
func (k Kind) IsAxon() bool {
	return k >= KindAxonAvgPool && k <= KindAxonScale
}

// IsSoma reports whether the kind runs in a soma stage.
func (k Kind) IsSoma() bool {
	return k >= KindSomaCompare && k <= KindSomaMoveSplit
}

// Slot names a position in a primitive group.
type Slot string

const (
	SlotAxon   Slot = "axon"
	SlotSoma1  Slot = "soma1"
	SlotRouter Slot = "router"
	SlotSoma2  Slot = "soma2"
)

// Slots in lowering order.
var Slots = []Slot{SlotAxon, SlotSoma1, SlotRouter, SlotSoma2}

// Accepts reports whether a kind may occupy the slot.
func (s Slot) Accepts(k Kind) bool {
	switch s {
	case SlotAxon:
		return k.IsAxon()
	case SlotSoma1, SlotSoma2:
		return k.IsSoma()
	case SlotRouter:
		return k == KindRouter
	default:
		return false
	}
}

// Case returns the case occupying slot s, or nil.
func (g *PrimGroup) Case(s Slot) *PrimitiveCase {
	switch s {
	case SlotAxon:
		return g.Axon
	case SlotSoma1:
		return g.Soma1
	case SlotRouter:
		return g.Router
	case SlotSoma2:
		return g.Soma2
	default:
		return nil
	}
}
