package lower

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
)

func requireCode(t *testing.T, err error, code string) *Error {
	t.Helper()
	require.Error(t, err)
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, code, le.Code)
	return le
}

func TestLowerPrimitive_MLPWithVectorBias(t *testing.T) {
	e := New()
	e.SetCoordinate(Coordinate{ChipX: 0, ChipY: 0, CoreX: 1, CoreY: 2, Phase: 1})
	areas := []Area{{Name: "o", Address: 0x2000, Length: 256}}

	pc, err := e.LowerPrimitive(config.SlotAxon, mlpCase(), areas)
	require.NoError(t, err)

	assert.Equal(t, config.PICMLP, pc.PIC)
	assert.Equal(t, "axon_mlp", pc.Kind)
	assert.Equal(t, ir.FamilyAxon, pc.Family)
	assert.Equal(t, []ir.BlockRef{
		{Operand: "x1", BlockID: "axon_x1_1"},
		{Operand: "x2", BlockID: "axon_x2_2"},
		{Operand: "bias", BlockID: "axon_bias_3"},
	}, pc.Inputs)
	assert.Equal(t, []ir.BlockRef{{Operand: "o", BlockID: "axon_o_4"}}, pc.Outputs)
	assert.Equal(t, 4, e.Registry().Counter())

	x1, _ := e.Registry().Block("axon_x1_1")
	assert.Equal(t, ir.PrecisionInt8, x1.Precision)
	assert.Equal(t, []int32{1, 2, 3, 4}, x1.Payload)
	assert.Equal(t, 1, x1.Position.CoreX)

	x2, _ := e.Registry().Block("axon_x2_2")
	assert.Equal(t, ir.PrecisionTernary, x2.Precision)

	bias, _ := e.Registry().Block("axon_bias_3")
	assert.Equal(t, ir.PrecisionInt32, bias.Precision)
	assert.Equal(t, int64(0x0C00), bias.Address)

	out, _ := e.Registry().Block("axon_o_4")
	assert.Equal(t, ir.BlockDynamic, out.Kind)
	assert.Equal(t, ir.PrecisionInt32, out.Precision)
	assert.Equal(t, ir.DirectionOut, out.Direction)
	assert.Equal(t, int64(256), out.Length)
	assert.Equal(t, "axon.o", out.Position.Socket)

	assert.Equal(t, ir.IRString("INT_8"), pc.Fields["x1_precision"])
	assert.Equal(t, ir.IRString("TERNARY"), pc.Fields["x2_precision"])
	assert.Equal(t, ir.IRString("VECTOR"), pc.Fields["bias_type"])
	assert.Equal(t, ir.IRInt(64), pc.Fields["cin"])
	assert.Equal(t, ir.Shape{Features: 32, InputFeatures: 64}, pc.Shape)
}

func TestLowerPrimitive_DuplicateAddressAllocatesNothing(t *testing.T) {
	c := mlpCase()
	c.Fields["x2_base_addr"] = 0x0000

	e := New()
	_, err := e.LowerPrimitive(config.SlotAxon, c, []Area{{Name: "o", Address: 0x2000, Length: 256}})

	le := requireCode(t, err, CodeAddressMatch)
	assert.Equal(t, "memory_blocks[0]", le.Field)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, e.Registry().Counter())
	assert.Empty(t, e.Registry().Blocks())
}

func TestLowerPrimitive_UnmatchedBlock(t *testing.T) {
	c := mlpCase()
	c.MemoryBlocks = append(c.MemoryBlocks, block(0x9999, 1))

	_, err := New().LowerPrimitive(config.SlotAxon, c, nil)
	le := requireCode(t, err, CodeAddressMatch)
	assert.Equal(t, "memory_blocks[3]", le.Field)
}

func TestLowerPrimitive_UndeclaredAddressNeverMatches(t *testing.T) {
	// a block at 0 must not match an absent field that reads as zero
	c := prim(config.PICMLP, map[string]int64{"x2_base_addr": 0x100}, block(0, 1))

	_, err := New().LowerPrimitive(config.SlotAxon, c, nil)
	requireCode(t, err, CodeAddressMatch)
}

func TestLowerPrimitive_ConstantBiasSkipped(t *testing.T) {
	for _, biasType := range []int64{0, 1} {
		c := mlpCase()
		c.Fields["bias_type"] = biasType

		e := New()
		pc, err := e.LowerPrimitive(config.SlotAxon, c, nil)
		require.NoError(t, err)

		assert.Len(t, pc.Inputs, 2)
		assert.Empty(t, pc.Outputs)
		assert.Equal(t, ir.IRString("CONSTANT"), pc.Fields["bias_type"])
		assert.Equal(t, 2, e.Registry().Counter())
	}
}

func TestLowerPrimitive_NoBiasTypeMeansConstant(t *testing.T) {
	c := mlpCase()
	delete(c.Fields, "bias_type")

	pc, err := New().LowerPrimitive(config.SlotAxon, c, nil)
	require.NoError(t, err)
	assert.Len(t, pc.Inputs, 2)
	assert.NotContains(t, pc.Fields, "bias_type")
}

func TestLowerPrimitive_TensorAddX2FollowsX1(t *testing.T) {
	c := prim(config.PICTensorAdd, map[string]int64{
		"x1_base_addr": 0x100,
		"x2_base_addr": 0x200,
		"x1_precision": 2,
		"x2_precision": 3,
		"n_branch":     2,
	}, block(0x100, 1), block(0x200, 2))

	e := New()
	pc, err := e.LowerPrimitive(config.SlotAxon, c, nil)
	require.NoError(t, err)

	x2, ok := e.Registry().Block(pc.Inputs[1].BlockID)
	require.True(t, ok)
	assert.Equal(t, ir.PrecisionUint8, x2.Precision)
	assert.NotContains(t, pc.Fields, "x2_precision")
	assert.Equal(t, int64(2), pc.Shape.Branches)
}

func TestLowerPrimitive_AxonTooManyAreas(t *testing.T) {
	areas := []Area{{Name: "o"}, {Name: "o"}}
	_, err := New().LowerPrimitive(config.SlotAxon, mlpCase(), areas)
	requireCode(t, err, CodeOutputAreaCount)
}

func TestLowerPrimitive_SlotMismatch(t *testing.T) {
	tests := []struct {
		name string
		slot config.Slot
		pic  int
	}{
		{"soma in axon slot", config.SlotAxon, config.PICMove},
		{"axon in soma2 slot", config.SlotSoma2, config.PICConv},
		{"router in soma1 slot", config.SlotSoma1, config.PICRouter},
		{"soma in router slot", config.SlotRouter, config.PICLUT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().LowerPrimitive(tt.slot, prim(tt.pic, nil), nil)
			requireCode(t, err, CodeFamilySlot)
			assert.True(t, errors.Is(err, ErrConfigShape))
		})
	}
}

func TestLowerPrimitive_UnknownPIC(t *testing.T) {
	_, err := New().LowerPrimitive(config.SlotAxon, prim(0x77, nil), nil)
	requireCode(t, err, CodeUnknownPIC)
}

func TestLowerPrimitive_PrecisionCodeOutOfRange(t *testing.T) {
	c := mlpCase()
	c.Fields["x1_precision"] = 7

	e := New()
	_, err := e.LowerPrimitive(config.SlotAxon, c, nil)
	le := requireCode(t, err, CodePrecisionCode)
	assert.Equal(t, "x1_precision", le.Field)
	assert.True(t, errors.Is(err, ErrDomain))
	assert.Equal(t, 0, e.Registry().Counter())
}

func TestLowerPrimitive_BiasTypeOutOfRange(t *testing.T) {
	c := mlpCase()
	c.Fields["bias_type"] = 4
	_, err := New().LowerPrimitive(config.SlotAxon, c, nil)
	requireCode(t, err, CodeEnumCode)
}

func TestLowerPrimitive_AxonDelay(t *testing.T) {
	c := mlpCase()
	c.Fields["axon_delay"] = 1
	c.Fields["delay_clock"] = 5
	c.Fields["a2s2_mode"] = 0

	pc, err := New().LowerPrimitive(config.SlotAxon, c, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(true), pc.Fields["axon_delay"])
	assert.Equal(t, ir.IRBool(true), pc.Fields["a2s2_mode"])
	assert.Equal(t, ir.IRInt(5), pc.Fields["delay_clock"])
}

func TestLowerPrimitive_NoDelayDropsDelayClock(t *testing.T) {
	c := mlpCase()
	c.Fields["delay_clock"] = 5

	pc, err := New().LowerPrimitive(config.SlotAxon, c, nil)
	require.NoError(t, err)
	assert.NotContains(t, pc.Fields, "delay_clock")
	assert.NotContains(t, pc.Fields, "a2s2_mode")
}

func TestLowerPrimitive_CompareInitLanes(t *testing.T) {
	c := prim(config.PICMove, map[string]int64{
		"out_precision": 1,
		"compare_init":  0x7F80FF01,
		"o_base_addr":   0x300,
		"length_out":    4,
	})

	pc, err := New().LowerPrimitive(config.SlotSoma1, c, nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IntArray([]int64{127, -128, -1, 1}), pc.Fields["compare_init"])
	assert.Equal(t, ir.IRString("INT_8"), pc.Fields["out_precision"])
}

func TestLowerPrimitive_SomaOutputPrecision(t *testing.T) {
	c := prim(config.PICMove, map[string]int64{"out_precision": 2, "o_base_addr": 0x300, "length_out": 4})

	e := New()
	pc, err := e.LowerPrimitive(config.SlotSoma2, c, []Area{{Name: "o", Address: 0x300, Length: 4}})
	require.NoError(t, err)
	require.Len(t, pc.Outputs, 1)
	assert.Equal(t, "soma2_o_1", pc.Outputs[0].BlockID)

	b, _ := e.Registry().Block("soma2_o_1")
	assert.Equal(t, ir.PrecisionUint8, b.Precision)
	assert.Equal(t, "soma2.o", b.Position.Socket)
}

func TestLowerPrimitive_LIF(t *testing.T) {
	c := lifCase(0)
	c.Fields["fire_type"] = 5
	c.Fields["first_seed"] = 11
	c.Fields["first_tw_cnt"] = 3
	c.Fields["uin_base_addr"] = 0x500
	c.MemoryBlocks = []config.MemoryBlock{
		block(0x500, 1, 2),
		block(0x777, 9), // matches nothing, ignored
	}

	e := New()
	areas := ComputeOutputAreas(nil, c, nil, nil, DefaultReceiveBase)
	pc, err := e.LowerPrimitive(config.SlotSoma1, c, areas.Soma1)
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockRef{{Operand: "uin", BlockID: "soma1_uin_1"}}, pc.Inputs)
	assert.Equal(t, []ir.BlockRef{
		{Operand: "spike", BlockID: "soma1_spike_2"},
		{Operand: "v", BlockID: "soma1_v_3"},
		{Operand: "vtheta", BlockID: "soma1_vtheta_4"},
		{Operand: "param", BlockID: "soma1_param_5"},
	}, pc.Outputs)

	spike, _ := e.Registry().Block("soma1_spike_2")
	assert.Equal(t, ir.PrecisionTernary, spike.Precision)
	v, _ := e.Registry().Block("soma1_v_3")
	assert.Equal(t, ir.PrecisionInt32, v.Precision)

	assert.Equal(t, ir.IRInt(11), pc.Fields["seed"])
	assert.Equal(t, ir.IRInt(3), pc.Fields["Tw_cnt"])
	assert.NotContains(t, pc.Fields, "first_seed")
	assert.NotContains(t, pc.Fields, "first_tw_cnt")
	assert.Equal(t, ir.Shape{Features: 16}, pc.Shape)
}

func TestLowerPrimitive_LIFTakesFirstMatch(t *testing.T) {
	c := prim(config.PICLIF, map[string]int64{"v_base_addr": 0x200, "vm_base_addr": 0x200}, block(0x200, 1))

	pc, err := New().LowerPrimitive(config.SlotSoma1, c, nil)
	require.NoError(t, err)
	require.Len(t, pc.Inputs, 1)
	assert.Equal(t, "v", pc.Inputs[0].Operand)
}

func TestLowerPrimitive_LIFFireTypeOutOfRange(t *testing.T) {
	c := lifCase(0)
	c.Fields["fire_type"] = 9
	areas := ComputeOutputAreas(nil, c, nil, nil, DefaultReceiveBase)

	_, err := New().LowerPrimitive(config.SlotSoma1, c, areas.Soma1)
	le := requireCode(t, err, CodeEnumCode)
	assert.Equal(t, "fire_type", le.Field)
}

func routerCase(fields map[string]int64, blocks ...config.MemoryBlock) *config.PrimitiveCase {
	c := prim(config.PICRouter, fields, blocks...)
	return c
}

func TestLowerPrimitive_RouterSendAndReceive(t *testing.T) {
	c := routerCase(map[string]int64{
		"Send_en":         1,
		"Receive_en":      1,
		"Addr_Dout_base":  0x100,
		"Addr_Din_base":   0x40,
		"Addr_Din_length": 7,
		"Send_number":     3,
	}, block(0x100, 10, 20))

	e := New()
	areas := ComputeOutputAreas(nil, nil, c, nil, DefaultReceiveBase)
	pc, err := e.LowerPrimitive(config.SlotRouter, c, areas.Router)
	require.NoError(t, err)

	assert.Equal(t, ir.FamilyRouter, pc.Family)
	assert.Equal(t, []ir.BlockRef{{Operand: "send", BlockID: "router_send_1"}}, pc.Inputs)
	assert.Equal(t, []ir.BlockRef{{Operand: "recv", BlockID: "router_recv_2"}}, pc.Outputs)

	send, _ := e.Registry().Block("router_send_1")
	assert.Equal(t, ir.PrecisionInt16, send.Precision)
	assert.Equal(t, []int32{10, 20}, send.Payload)

	recv, _ := e.Registry().Block("router_recv_2")
	assert.Equal(t, ir.DirectionIn, recv.Direction)
	assert.Equal(t, ir.PrecisionInt16, recv.Precision)
	assert.Equal(t, int64(0x8040), recv.Address)
	assert.Equal(t, int64(16), recv.Length)

	assert.Equal(t, ir.IRBool(true), pc.Fields["Send_en"])
	assert.Equal(t, ir.IRInt(0x40), pc.Fields["Addr_Din_base"])
	assert.Equal(t, int64(3), pc.Shape.Branches)
}

func TestLowerPrimitive_RouterTwoSendBlocks(t *testing.T) {
	c := routerCase(map[string]int64{"Addr_Dout_base": 0x100}, block(0x100, 1), block(0x100, 2))

	e := New()
	_, err := e.LowerPrimitive(config.SlotRouter, c, nil)
	le := requireCode(t, err, CodeMultipleSend)
	assert.Equal(t, "memory_blocks[1]", le.Field)
	assert.Equal(t, 0, e.Registry().Counter())
}

func TestLowerPrimitive_RouterReceiveWithoutArea(t *testing.T) {
	c := routerCase(map[string]int64{"Receive_en": 1, "Addr_Dout_base": 0x100}, block(0x100, 1))

	e := New()
	_, err := e.LowerPrimitive(config.SlotRouter, c, nil)
	requireCode(t, err, CodeMissingReceive)
	assert.Equal(t, 0, e.Registry().Counter())
}

func TestLowerPrimitive_RouterReceiveDisabledIgnoresAreas(t *testing.T) {
	c := routerCase(map[string]int64{"Receive_en": 0})

	pc, err := New().LowerPrimitive(config.SlotRouter, c, []Area{{Name: "recv"}})
	require.NoError(t, err)
	assert.Empty(t, pc.Outputs)
}

func TestLowerPrimitive_RouterHeads(t *testing.T) {
	c := routerCase(nil)
	c.RouterTable = []map[string]int64{
		{"S": 1, "T": 1, "P": 0, "Q": 1, "X": -2, "Y": 3, "A": 0x40, "EN": 1},
		{"T": 0, "Q": 0, "P": 1, "X": 0, "Y": 0, "A": 0, "pack_per_Rhead": 4, "A_offset": 2, "Const": 0},
	}

	pc, err := New().LowerPrimitive(config.SlotRouter, c, nil)
	require.NoError(t, err)
	require.Len(t, pc.Heads, 2)

	one := int64(1)
	assert.Equal(t, ir.RouterHead{
		IsInstantRequest: true,
		PacketSizeMode:   ir.PacketSingle,
		RelayType:        ir.RelayMulticast,
		DX:               -2,
		DY:               3,
		Destination:      0x40,
		Enable:           &one,
	}, pc.Heads[0])

	h := pc.Heads[1]
	assert.False(t, h.IsInstantRequest)
	assert.True(t, h.IsPacketFinish)
	assert.Equal(t, ir.PacketMulti, h.PacketSizeMode)
	assert.Equal(t, ir.RelayNone, h.RelayType)
	require.NotNil(t, h.PackPerRhead)
	assert.Equal(t, int64(4), *h.PackPerRhead)
	require.NotNil(t, h.Const)
	assert.Zero(t, *h.Const)
	assert.Nil(t, h.Enable)
}

func TestLowerPrimitive_RouterHeadEnumOutOfRange(t *testing.T) {
	c := routerCase(nil)
	c.RouterTable = []map[string]int64{{"T": 0}, {"T": 2}}

	_, err := New().LowerPrimitive(config.SlotRouter, c, nil)
	le := requireCode(t, err, CodeEnumCode)
	assert.Equal(t, "router_table[1].T", le.Field)
}

func TestLowerPrimitive_EveryKindLowers(t *testing.T) {
	tests := []struct {
		slot config.Slot
		pic  int
		kind string
	}{
		{config.SlotAxon, config.PICAvgPool, "axon_avg_pool"},
		{config.SlotAxon, config.PICTensorAdd, "axon_tensor_add"},
		{config.SlotAxon, config.PICMLP, "axon_mlp"},
		{config.SlotAxon, config.PICConv, "axon_conv"},
		{config.SlotAxon, config.PICVecMul, "axon_vec_mul"},
		{config.SlotAxon, config.PICDilatedConv, "axon_dilated_conv"},
		{config.SlotAxon, config.PICScale, "axon_scale"},
		{config.SlotSoma1, config.PICCompare, "soma_compare"},
		{config.SlotSoma2, config.PICMerge, "soma_compare"},
		{config.SlotSoma1, config.PICMove, "soma_move"},
		{config.SlotSoma1, config.PICLUT, "soma_lut"},
		{config.SlotSoma2, config.PICLIF, "soma_lif"},
		{config.SlotSoma2, config.PICMoveSplit, "soma_move_split"},
		{config.SlotRouter, config.PICRouter, "router"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			pc, err := New().LowerPrimitive(tt.slot, prim(tt.pic, map[string]int64{"nif": 8}), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, pc.Kind)
			assert.Equal(t, tt.pic, pc.PIC)
			assert.NotNil(t, pc.Fields)
			assert.NotNil(t, pc.Inputs)
			assert.NotNil(t, pc.Outputs)
		})
	}
}
