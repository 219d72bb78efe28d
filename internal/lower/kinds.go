package lower

import (
	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
)

// precisionRule resolves the precision of an operand or output area.
type precisionRule func(c *config.PrimitiveCase) (ir.Precision, error)

func fromField(field string) precisionRule {
	return func(c *config.PrimitiveCase) (ir.Precision, error) {
		return precisionField(field, c.Get(field))
	}
}

func fixed(p ir.Precision) precisionRule {
	return func(*config.PrimitiveCase) (ir.Precision, error) {
		return p, nil
	}
}

// operand is a named address of a kind. Memory blocks must start at
// exactly one of them. Only static operands get a static block.
type operand struct {
	name      string
	addrField string
	static    bool
	precision precisionRule
}

// kindDef is the compiled lowering table of one primitive kind.
type kindDef struct {
	family   ir.Family
	fields   []fieldRule
	operands []operand
	shape    func(c *config.PrimitiveCase) ir.Shape
	// outPrecision resolves the dynamic block precision of an output area.
	outPrecision func(c *config.PrimitiveCase, area Area) (ir.Precision, error)
	// skipBlockCheck exempts the kind from address-correspondence checks.
	skipBlockCheck bool
}

var (
	axonX1   = operand{"x1", "x1_base_addr", true, fromField("x1_precision")}
	axonBias = operand{"bias", "bias_base_addr", true, fixed(ir.PrecisionInt32)}
	axonOut  = operand{"o", "o_base_addr", false, nil}
	// the x2 of add-like kinds has the x1 element type
	axonX2SameAsX1 = operand{"x2", "x2_base_addr", true, fromField("x1_precision")}
	axonX2Weights  = operand{"x2", "x2_base_addr", true, fromField("x2_precision")}

	somaX1  = operand{"x1", "x1_base_addr", true, fromField("x1_precision")}
	somaOut = operand{"o", "o_base_addr", false, nil}
)

func axonOutPrecision(*config.PrimitiveCase, Area) (ir.Precision, error) {
	return ir.PrecisionInt32, nil
}

func somaOutPrecision(c *config.PrimitiveCase, _ Area) (ir.Precision, error) {
	return precisionField("out_precision", c.Get("out_precision"))
}

func lifOutPrecision(c *config.PrimitiveCase, area Area) (ir.Precision, error) {
	if area.Name != "spike" {
		return ir.PrecisionInt32, nil
	}
	fireType := c.Get("fire_type")
	p, ok := ir.FireTypePrecision(fireType)
	if !ok {
		return "", domainErr(CodeEnumCode, "fire_type", "fire type %d outside 0..7", fireType)
	}
	return p, nil
}

func windowShape(features, inputs string) func(c *config.PrimitiveCase) ir.Shape {
	return func(c *config.PrimitiveCase) ir.Shape {
		s := ir.Shape{
			Features: c.Get(features),
			KernelY:  c.Get("nky"),
			KernelX:  c.Get("nkx"),
			ImageY:   c.Get("niy"),
			ImageX:   c.Get("nix"),
		}
		if inputs != "" {
			s.InputFeatures = c.Get(inputs)
		}
		return s
	}
}

func branchShape(c *config.PrimitiveCase) ir.Shape {
	return ir.Shape{
		Features: c.Get("nif"),
		ImageY:   c.Get("niy"),
		ImageX:   c.Get("nix"),
		Branches: c.Get("n_branch"),
	}
}

func streamShape(c *config.PrimitiveCase) ir.Shape {
	return ir.Shape{
		Features:      c.Get("length_out"),
		InputFeatures: c.Get("length_in"),
		Groups:        c.Get("num_in"),
	}
}

// kindDefOf returns the lowering table for k.
func kindDefOf(k config.Kind) (kindDef, bool) {
	switch k {
	case config.KindAxonAvgPool:
		return kindDef{
			family:       ir.FamilyAxon,
			fields:       rules(axonCommonFields, windowFields, copies("constant_b")),
			operands:     []operand{axonX1, axonBias, axonOut},
			shape:        windowShape("nif", ""),
			outPrecision: axonOutPrecision,
		}, true

	case config.KindAxonTensorAdd, config.KindAxonVecMul:
		return kindDef{
			family:       ir.FamilyAxon,
			fields:       rules(axonCommonFields, axonSecondOperandFields, imageFields, copies("n_branch", "constant_a", "constant_b")),
			operands:     []operand{axonX1, axonX2SameAsX1, axonBias, axonOut},
			shape:        branchShape,
			outPrecision: axonOutPrecision,
		}, true

	case config.KindAxonMLP:
		return kindDef{
			family:   ir.FamilyAxon,
			fields:   rules(axonCommonFields, axonSecondOperandFields, weightPrecisionField, copies("cin", "cout", "constant_b")),
			operands: []operand{axonX1, axonX2Weights, axonBias, axonOut},
			shape: func(c *config.PrimitiveCase) ir.Shape {
				return ir.Shape{Features: c.Get("cout"), InputFeatures: c.Get("cin")}
			},
			outPrecision: axonOutPrecision,
		}, true

	case config.KindAxonConv:
		return kindDef{
			family:       ir.FamilyAxon,
			fields:       rules(axonCommonFields, axonSecondOperandFields, weightPrecisionField, windowFields, copies("nof", "constant_b")),
			operands:     []operand{axonX1, axonX2Weights, axonBias, axonOut},
			shape:        windowShape("nof", "nif"),
			outPrecision: axonOutPrecision,
		}, true

	case config.KindAxonDilatedConv:
		return kindDef{
			family:       ir.FamilyAxon,
			fields:       rules(axonCommonFields, axonSecondOperandFields, weightPrecisionField, windowFields, copies("nof", "dilate_y", "dilate_x", "constant_b")),
			operands:     []operand{axonX1, axonX2Weights, axonBias, axonOut},
			shape:        windowShape("nof", "nif"),
			outPrecision: axonOutPrecision,
		}, true

	case config.KindAxonScale:
		return kindDef{
			family:   ir.FamilyAxon,
			fields:   rules(axonCommonFields, imageFields, copies("constant_a", "constant_b")),
			operands: []operand{axonX1, axonBias, axonOut},
			shape: func(c *config.PrimitiveCase) ir.Shape {
				return ir.Shape{Features: c.Get("nif"), ImageY: c.Get("niy"), ImageX: c.Get("nix")}
			},
			outPrecision: axonOutPrecision,
		}, true

	case config.KindSomaCompare:
		return kindDef{
			family: ir.FamilySoma,
			fields: rules(somaCommonFields, windowFields, compareInitField,
				copies("x2_base_addr", "length_in", "length_out", "length_ciso", "num_in"),
				flags("merge_direction")),
			operands: []operand{
				somaX1,
				{"x2", "x2_base_addr", true, fromField("x1_precision")},
				somaOut,
			},
			shape: func(c *config.PrimitiveCase) ir.Shape {
				s := windowShape("nif", "length_in")(c)
				s.Groups = c.Get("num_in")
				return s
			},
			outPrecision: somaOutPrecision,
		}, true

	case config.KindSomaMove:
		return kindDef{
			family:       ir.FamilySoma,
			fields:       rules(somaCommonFields, compareInitField, copies("length_in", "length_out", "num_in", "num_out", "in_row_max")),
			operands:     []operand{somaX1, somaOut},
			shape:        streamShape,
			outPrecision: somaOutPrecision,
		}, true

	case config.KindSomaLUT:
		return kindDef{
			family: ir.FamilySoma,
			fields: rules(somaCommonFields, copies("lut_base_addr", "lut_data_width", "bit_shift_num", "length_in", "length_out", "num_in")),
			operands: []operand{
				somaX1,
				{"lut", "lut_base_addr", true, fromField("out_precision")},
				somaOut,
			},
			shape: func(c *config.PrimitiveCase) ir.Shape {
				return ir.Shape{Features: c.Get("length_in"), Groups: c.Get("num_in")}
			},
			outPrecision: somaOutPrecision,
		}, true

	case config.KindSomaLIF:
		return kindDef{
			family: ir.FamilySoma,
			fields: rules(somaCommonFields,
				copies("uin_base_addr", "v_base_addr", "vm_base_addr", "vtheta_base_addr", "para_base_addr",
					"neu_num", "fire_type", "Tw_len", "vth0", "vleaky_alpha", "vleaky_beta", "dv", "vr",
					"reset_mode", "ref_len", "para_length", "length_out"),
				flags("vth_adpt_en", "vleaky_adpt_en", "tw_en"),
				[]fieldRule{
					{"first_seed", "seed", xfCopy},
					{"first_tw_cnt", "Tw_cnt", xfCopy},
				}),
			operands: []operand{
				{"uin", "uin_base_addr", true, fromField("x1_precision")},
				{"v", "v_base_addr", true, fixed(ir.PrecisionInt32)},
				{"vm", "vm_base_addr", true, fixed(ir.PrecisionInt32)},
				{"vtheta", "vtheta_base_addr", true, fixed(ir.PrecisionInt32)},
				somaOut,
			},
			shape: func(c *config.PrimitiveCase) ir.Shape {
				return ir.Shape{Features: c.Get("neu_num")}
			},
			outPrecision:   lifOutPrecision,
			skipBlockCheck: true,
		}, true

	case config.KindSomaMoveSplit:
		return kindDef{
			family: ir.FamilySoma,
			fields: rules(somaCommonFields, compareInitField,
				copies("ciso_base_addr", "length_in", "length_out", "length_ciso", "num_in"),
				flags("out_ciso_sel", "reset_ciso_addr")),
			operands:     []operand{somaX1, somaOut},
			shape:        streamShape,
			outPrecision: somaOutPrecision,
		}, true

	case config.KindRouter:
		return kindDef{
			family: ir.FamilyRouter,
			fields: rules(
				copies("Rhead_mode", "CXY", "Dout_Mem_sel", "Addr_Dout_base", "Addr_Dout_length",
					"Addr_Rhead_base", "Addr_Rhead_length", "Addr_Din_base", "Addr_Din_length",
					"Send_number", "Receive_number", "Nx", "Ny", "Relay_number", "T_mode"),
				flags("Send_en", "Receive_en", "Soma_in_en", "Back_sign_en")),
			operands: []operand{{"send", "Addr_Dout_base", true, fixed(ir.PrecisionInt16)}},
			shape: func(c *config.PrimitiveCase) ir.Shape {
				return ir.Shape{Branches: c.Get("Send_number")}
			},
			outPrecision: func(*config.PrimitiveCase, Area) (ir.Precision, error) {
				return ir.PrecisionInt16, nil
			},
		}, true
	}
	return kindDef{}, false
}
