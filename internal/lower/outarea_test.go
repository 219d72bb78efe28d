package lower

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/neurasm/internal/config"
)

func TestLineBufferRatio(t *testing.T) {
	tests := []struct {
		name  string
		soma1 *config.PrimitiveCase
		want  int64
	}{
		{"no soma1", nil, 1},
		{"pipelining off", prim(config.PICMove, map[string]int64{"niy": 64, "row_pipeline_num": 8}), 1},
		{"niy first", prim(config.PICCompare, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 8, "niy": 64, "length_in": 1024,
		}), 8},
		{"merge ciso", prim(config.PICMerge, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 4, "merge_direction": 1, "length_ciso": 32, "length_in": 400,
		}), 8},
		{"merge input", prim(config.PICMerge, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 4, "length_ciso": 32, "length_in": 400,
		}), 100},
		{"length_in", prim(config.PICMove, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 2, "length_in": 30, "num_in": 100,
		}), 15},
		{"merge ciso absent falls to length_in", prim(config.PICMerge, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 8, "merge_direction": 1, "length_in": 64,
		}), 8},
		{"merge without lengths falls to num_in", prim(config.PICMerge, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 4, "num_in": 40,
		}), 10},
		{"num_in", prim(config.PICMove, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 2, "num_in": 100,
		}), 50},
		{"floored at one", prim(config.PICMove, map[string]int64{
			"row_pipeline_en": 1, "row_pipeline_num": 16, "length_in": 4,
		}), 1},
		{"zero pipeline count", prim(config.PICMove, map[string]int64{
			"row_pipeline_en": 1, "length_in": 4,
		}), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineBufferRatio(tt.soma1))
		})
	}
}

func TestComputeOutputAreas_ScenarioB(t *testing.T) {
	axon := prim(config.PICConv, map[string]int64{"o_base_addr": 0x2000, "Write_V_length": 512})
	soma1 := prim(config.PICCompare, map[string]int64{
		"row_pipeline_en": 1, "niy": 64, "row_pipeline_num": 8, "o_base_addr": 0x3000, "length_out": 10,
	})

	areas := ComputeOutputAreas(axon, soma1, nil, nil, DefaultReceiveBase)
	assert.Equal(t, []Area{{Name: "o", Address: 0x2000, Length: 64}}, areas.Axon)
}

func TestComputeOutputAreas_AxonDelay(t *testing.T) {
	axon := prim(config.PICConv, map[string]int64{"o_base_addr": 0x2000, "Write_V_length": 512, "axon_delay": 1})
	areas := ComputeOutputAreas(axon, nil, nil, nil, DefaultReceiveBase)
	assert.Empty(t, areas.Axon)
}

func TestComputeOutputAreas_ScenarioC(t *testing.T) {
	router := prim(config.PICRouter, map[string]int64{"Receive_en": 0, "Addr_Din_base": 0x100, "Addr_Din_length": 1000})
	areas := ComputeOutputAreas(nil, nil, router, nil, DefaultReceiveBase)
	assert.Empty(t, areas.Router)
}

func TestComputeOutputAreas_RouterReceive(t *testing.T) {
	router := prim(config.PICRouter, map[string]int64{"Receive_en": 1, "Addr_Din_base": 0x100, "Addr_Din_length": 15})

	areas := ComputeOutputAreas(nil, nil, router, nil, DefaultReceiveBase)
	assert.Equal(t, []Area{{Name: "recv", Address: 0x8100, Length: 32}}, areas.Router)

	areas = ComputeOutputAreas(nil, nil, router, nil, 0x4000)
	assert.Equal(t, int64(0x4100), areas.Router[0].Address)
}

func TestComputeOutputAreas_SomaInputOverride(t *testing.T) {
	soma1 := prim(config.PICMove, map[string]int64{"o_base_addr": 0x500, "length_out": 7})
	router := prim(config.PICRouter, map[string]int64{"Soma_in_en": 1, "Addr_Din_length": 9})

	areas := ComputeOutputAreas(nil, soma1, router, nil, DefaultReceiveBase)
	assert.Equal(t, []Area{{Name: "o", Address: 0x500, Length: 40}}, areas.Soma1)

	// soma2 never takes the router override
	soma2 := prim(config.PICMove, map[string]int64{"o_base_addr": 0x600, "length_out": 7})
	areas = ComputeOutputAreas(nil, nil, router, soma2, DefaultReceiveBase)
	assert.Equal(t, []Area{{Name: "o", Address: 0x600, Length: 7}}, areas.Soma2)
}

func lifCase(memSel int64) *config.PrimitiveCase {
	return prim(config.PICLIF, map[string]int64{
		"mem_sel":          memSel,
		"o_base_addr":      0x100,
		"length_out":       4,
		"v_base_addr":      0x200,
		"vtheta_base_addr": 0x300,
		"para_base_addr":   0x400,
		"para_length":      12,
		"neu_num":          16,
	})
}

func TestComputeOutputAreas_LIF(t *testing.T) {
	local := ComputeOutputAreas(nil, lifCase(0), nil, nil, DefaultReceiveBase)
	assert.Equal(t, []Area{
		{Name: "spike", Address: 0x100, Length: 4},
		{Name: "v", Address: 0x200, Length: 16},
		{Name: "vtheta", Address: 0x300, Length: 16},
		{Name: "param", Address: 0x400, Length: 12},
	}, local.Soma1)

	readback := ComputeOutputAreas(nil, lifCase(1), nil, nil, DefaultReceiveBase)
	assert.Equal(t, []Area{
		{Name: "v", Address: 0x200, Length: 16},
		{Name: "vtheta", Address: 0x300, Length: 16},
		{Name: "param", Address: 0x400, Length: 12},
	}, readback.Soma1)
}

func splitCase(memSel, cisoSel int64) *config.PrimitiveCase {
	return prim(config.PICMoveSplit, map[string]int64{
		"mem_sel":        memSel,
		"out_ciso_sel":   cisoSel,
		"o_base_addr":    0x100,
		"length_out":     8,
		"ciso_base_addr": 0x900,
		"length_ciso":    3,
	})
}

func TestComputeOutputAreas_MoveSplit(t *testing.T) {
	primary := Area{Name: "o", Address: 0x100, Length: 8}
	ciso := Area{Name: "ciso", Address: 0x900, Length: 3}

	tests := []struct {
		name            string
		memSel, cisoSel int64
		want            []Area
	}{
		{"local primary first", 0, 0, []Area{primary, ciso}},
		{"local ciso first", 0, 1, []Area{ciso, primary}},
		{"readback primary", 1, 0, []Area{primary}},
		{"readback ciso", 1, 1, []Area{ciso}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			areas := ComputeOutputAreas(nil, splitCase(tt.memSel, tt.cisoSel), nil, nil, DefaultReceiveBase)
			assert.Equal(t, tt.want, areas.Soma1)

			// soma2 follows the same rules in every branch
			areas = ComputeOutputAreas(nil, nil, nil, splitCase(tt.memSel, tt.cisoSel), DefaultReceiveBase)
			assert.Equal(t, tt.want, areas.Soma2)
		})
	}
}

func TestComputeOutputAreas_ReadbackPlainSoma(t *testing.T) {
	for _, pic := range []int{config.PICCompare, config.PICMove, config.PICLUT} {
		t.Run(fmt.Sprintf("pic 0x%02x", pic), func(t *testing.T) {
			soma := prim(pic, map[string]int64{"mem_sel": 1, "o_base_addr": 0x100, "length_out": 8})
			areas := ComputeOutputAreas(nil, soma, nil, soma, DefaultReceiveBase)
			assert.Empty(t, areas.Soma1)
			// soma2 always records its declared area
			assert.Equal(t, []Area{{Name: "o", Address: 0x100, Length: 8}}, areas.Soma2)
		})
	}
}

func TestComputeOutputAreas_Soma2IgnoresRouterOverride(t *testing.T) {
	soma := prim(config.PICMove, map[string]int64{"o_base_addr": 0x100, "length_out": 8})
	router := prim(config.PICRouter, map[string]int64{"Soma_in_en": 1, "Addr_Din_length": 9})

	areas := ComputeOutputAreas(nil, soma, router, soma, DefaultReceiveBase)
	assert.Equal(t, int64(40), areas.Soma1[0].Length)
	assert.Equal(t, []Area{{Name: "o", Address: 0x100, Length: 8}}, areas.Soma2)
}

func TestOutputAreas_For(t *testing.T) {
	a := OutputAreas{
		Axon:   []Area{{Name: "a"}},
		Soma1:  []Area{{Name: "s1"}},
		Router: []Area{{Name: "r"}},
		Soma2:  []Area{{Name: "s2"}},
	}
	assert.Equal(t, "a", a.For(config.SlotAxon)[0].Name)
	assert.Equal(t, "s1", a.For(config.SlotSoma1)[0].Name)
	assert.Equal(t, "r", a.For(config.SlotRouter)[0].Name)
	assert.Equal(t, "s2", a.For(config.SlotSoma2)[0].Name)
	assert.Nil(t, a.For(config.Slot("bogus")))
}
