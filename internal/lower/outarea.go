package lower

import "github.com/roach88/neurasm/internal/config"

// Area is an output memory region computed for one phase.
type Area struct {
	Name    string // o, ciso, spike, v, vtheta, param, recv
	Address int64
	Length  int64
}

// OutputAreas holds the areas of one phase per family. They are computed
// and consumed within the same phase; nothing carries over to the next.
type OutputAreas struct {
	Axon   []Area
	Soma1  []Area
	Router []Area
	Soma2  []Area
}

// For returns the areas recorded for a slot.
func (a OutputAreas) For(slot config.Slot) []Area {
	switch slot {
	case config.SlotAxon:
		return a.Axon
	case config.SlotSoma1:
		return a.Soma1
	case config.SlotRouter:
		return a.Router
	case config.SlotSoma2:
		return a.Soma2
	default:
		return nil
	}
}

// LineBufferRatio is the divisor applied to the axon write length when the
// soma1 primitive spreads one logical write over pipelined rows.
func LineBufferRatio(soma1 *config.PrimitiveCase) int64 {
	if soma1 == nil || !soma1.Truthy("row_pipeline_en") {
		return 1
	}
	num := soma1.Get("row_pipeline_num")
	if num <= 0 {
		return 1
	}

	rows := soma1.Get("niy")
	if rows <= 0 && soma1.PIC == config.PICMerge {
		if soma1.Truthy("merge_direction") {
			rows = soma1.Get("length_ciso")
		} else {
			rows = soma1.Get("length_in")
		}
	}
	if rows <= 0 {
		rows = soma1.Get("length_in")
	}
	if rows <= 0 {
		rows = soma1.Get("num_in")
	}

	if ratio := rows / num; ratio > 1 {
		return ratio
	}
	return 1
}

// ComputeOutputAreas derives the output regions of one phase from the
// (possibly absent) primitives active in it.
func ComputeOutputAreas(axon, soma1, router, soma2 *config.PrimitiveCase, receiveBase int64) OutputAreas {
	var areas OutputAreas

	if axon != nil && !axon.Truthy("axon_delay") {
		ratio := LineBufferRatio(soma1)
		areas.Axon = []Area{{
			Name:    "o",
			Address: axon.Get("o_base_addr"),
			Length:  axon.Get("Write_V_length") / ratio,
		}}
	}

	if soma1 != nil {
		var override int64
		if router != nil && router.Truthy("Soma_in_en") {
			override = (router.Get("Addr_Din_length") + 1) * 4
		}
		areas.Soma1 = somaAreas(soma1, override, false)
	}

	if router != nil && router.Truthy("Receive_en") {
		areas.Router = []Area{{
			Name:    "recv",
			Address: receiveBase + router.Get("Addr_Din_base"),
			Length:  (router.Get("Addr_Din_length") + 1) * 2,
		}}
	}

	if soma2 != nil {
		areas.Soma2 = somaAreas(soma2, 0, true)
	}

	return areas
}

// somaAreas applies the memory-select branches. A non-zero override
// replaces the length of the single area of non-branching kinds. With
// always set (soma2), non-branching kinds produce their area whatever
// mem_sel says.
func somaAreas(c *config.PrimitiveCase, override int64, always bool) []Area {
	kind, _ := c.Kind()
	primary := Area{Name: "o", Address: c.Get("o_base_addr"), Length: c.Get("length_out")}

	if c.Get("mem_sel") == 0 {
		switch kind {
		case config.KindSomaLIF:
			return lifAreas(c, true)
		case config.KindSomaMoveSplit:
			ciso := cisoArea(c)
			if c.Truthy("out_ciso_sel") {
				return []Area{ciso, primary}
			}
			return []Area{primary, ciso}
		default:
			if override != 0 {
				primary.Length = override
			}
			return []Area{primary}
		}
	}

	switch kind {
	case config.KindSomaMoveSplit:
		if c.Truthy("out_ciso_sel") {
			return []Area{cisoArea(c)}
		}
		return []Area{primary}
	case config.KindSomaLIF:
		return lifAreas(c, false)
	default:
		if always {
			return []Area{primary}
		}
		return nil
	}
}

func cisoArea(c *config.PrimitiveCase) Area {
	return Area{Name: "ciso", Address: c.Get("ciso_base_addr"), Length: c.Get("length_ciso")}
}

func lifAreas(c *config.PrimitiveCase, withSpike bool) []Area {
	neurons := c.Get("neu_num")
	areas := make([]Area, 0, 4)
	if withSpike {
		areas = append(areas, Area{Name: "spike", Address: c.Get("o_base_addr"), Length: c.Get("length_out")})
	}
	return append(areas,
		Area{Name: "v", Address: c.Get("v_base_addr"), Length: neurons},
		Area{Name: "vtheta", Address: c.Get("vtheta_base_addr"), Length: neurons},
		Area{Name: "param", Address: c.Get("para_base_addr"), Length: c.Get("para_length")},
	)
}
