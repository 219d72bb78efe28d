package lower

import (
	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
)

// transform is how one source field becomes a lowered field.
type transform int

const (
	xfCopy transform = iota
	xfPrecision
	xfBiasType
	xfBool
	xfAxonDelay
	xfCompareInit
)

// fieldRule is one (source, target, transform) triple of a kind's table.
// Rules whose source field is not declared are skipped.
type fieldRule struct {
	source string
	target string
	xf     transform
}

func copies(names ...string) []fieldRule {
	rules := make([]fieldRule, len(names))
	for i, n := range names {
		rules[i] = fieldRule{source: n, target: n, xf: xfCopy}
	}
	return rules
}

func flags(names ...string) []fieldRule {
	rules := make([]fieldRule, len(names))
	for i, n := range names {
		rules[i] = fieldRule{source: n, target: n, xf: xfBool}
	}
	return rules
}

func rules(groups ...[]fieldRule) []fieldRule {
	var out []fieldRule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Field groups shared between kinds.
var (
	axonCommonFields = rules(
		[]fieldRule{
			{"x1_precision", "x1_precision", xfPrecision},
			{"bias_type", "bias_type", xfBiasType},
		},
		copies("x1_base_addr", "o_base_addr", "bias_base_addr",
			"Read_X_length", "Read_Bias_length", "Write_V_length"),
		flags("reset_x1_addr", "reset_o_addr", "a2s2_mode"),
		[]fieldRule{{"axon_delay", "axon_delay", xfAxonDelay}},
	)

	axonSecondOperandFields = rules(
		copies("x2_base_addr", "Read_A_length"),
		flags("reset_x2_addr"),
	)

	weightPrecisionField = []fieldRule{{"x2_precision", "x2_precision", xfPrecision}}

	windowFields = copies("niy", "nix", "nif", "nky", "nkx",
		"stride_y", "stride_x", "pad_top", "pad_down", "pad_left", "pad_right")

	imageFields = copies("niy", "nix", "nif")

	somaCommonFields = rules(
		[]fieldRule{
			{"x1_precision", "x1_precision", xfPrecision},
			{"out_precision", "out_precision", xfPrecision},
		},
		copies("x1_base_addr", "o_base_addr", "mem_sel", "row_pipeline_num"),
		flags("reset_x1_addr", "reset_o_addr", "row_pipeline_en"),
	)

	compareInitField = []fieldRule{{"compare_init", "compare_init", xfCompareInit}}
)

// applyFields runs a kind's field table over a case. The axon_delay side
// effects are applied after the table so a later a2s2_mode row cannot
// undo them.
func applyFields(c *config.PrimitiveCase, table []fieldRule) (ir.IRObject, error) {
	out := make(ir.IRObject, len(table))
	delayed := false

	for _, r := range table {
		v, ok := c.Int(r.source)
		if !ok {
			continue
		}
		switch r.xf {
		case xfCopy:
			out[r.target] = ir.IRInt(v)
		case xfBool:
			out[r.target] = ir.IRBool(v != 0)
		case xfPrecision:
			p, err := precisionField(r.source, v)
			if err != nil {
				return nil, err
			}
			out[r.target] = ir.IRString(p)
		case xfBiasType:
			b, ok := ir.BiasTypeFromCode(v)
			if !ok {
				return nil, domainErr(CodeEnumCode, r.source, "bias type code %d outside 0..3", v)
			}
			out[r.target] = ir.IRString(b)
		case xfAxonDelay:
			out[r.target] = ir.IRBool(v != 0)
			delayed = v != 0
		case xfCompareInit:
			p, err := precisionField("out_precision", c.Get("out_precision"))
			if err != nil {
				return nil, err
			}
			lanes, err := DecomposeCompare(v, p)
			if err != nil {
				return nil, err
			}
			out[r.target] = ir.IntArray(lanes)
		}
	}

	if delayed {
		out["a2s2_mode"] = ir.IRBool(true)
		if dc, ok := c.Int("delay_clock"); ok {
			out["delay_clock"] = ir.IRInt(dc)
		}
	}
	return out, nil
}

func precisionField(field string, code int64) (ir.Precision, error) {
	p, ok := ir.PrecisionFromCode(code)
	if !ok {
		return "", domainErr(CodePrecisionCode, field, "precision code %d outside 0..3", code)
	}
	return p, nil
}
