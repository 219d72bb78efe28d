package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
)

// lineWriter keeps the first write error so rendering code can stay linear.
type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) printf(indent int, format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, strings.Repeat("  ", indent)+format+"\n", args...)
}

// RenderText writes the human-readable artifact of one conversion. The
// output depends only on its inputs: map keys are sorted and blocks are
// listed in allocation order.
func RenderText(w io.Writer, asm *ir.Assembly, blocks []ir.DataBlock) error {
	lw := &lineWriter{w: w}
	lw.printf(0, "# neurasm assembly")
	lw.printf(0, "test_case: %s", asm.TestCase)
	lw.printf(0, "ir_version: %s", asm.IRVersion)

	for _, step := range asm.Steps {
		lw.printf(0, "")
		lw.printf(0, "step %d chip=(%d,%d)%s", step.ID, step.ChipX, step.ChipY, clockSuffix(step.SimClock))
		for _, pg := range step.PhaseGroups {
			lw.printf(1, "phase_group %d", pg.ID)
			for _, core := range pg.Cores {
				if err := renderCore(lw, core); err != nil {
					return err
				}
			}
		}
	}

	lw.printf(0, "")
	lw.printf(0, "blocks %d", len(blocks))
	for _, b := range blocks {
		lw.printf(1, "%s", blockLine(b))
	}
	return lw.err
}

func clockSuffix(c ir.SimClock) string {
	var s string
	if c.Clock != nil {
		s += fmt.Sprintf(" clock=%d", *c.Clock)
	}
	if c.Mode != nil {
		s += fmt.Sprintf(" mode=%d", *c.Mode)
	}
	return s
}

func renderCore(lw *lineWriter, core ir.CoreConfig) error {
	lw.printf(2, "core (%d,%d)", core.CoreX, core.CoreY)

	regs, err := nonZero(core.Registers)
	if err != nil {
		return fmt.Errorf("render registers: %w", err)
	}
	lw.printf(3, "registers %s", ir.Format(regs))

	for _, g := range core.StaticPrims {
		lw.printf(3, "phase %d", g.Phase)
		if err := renderGroup(lw, g); err != nil {
			return err
		}
	}
	for i, g := range core.InstantPrims {
		lw.printf(3, "instant %d", i)
		if err := renderGroup(lw, g); err != nil {
			return err
		}
	}
	return nil
}

func renderGroup(lw *lineWriter, g ir.PrimGroupConfig) error {
	slots := map[config.Slot]*ir.PrimitiveConfig{
		config.SlotAxon:   g.Axon,
		config.SlotSoma1:  g.Soma1,
		config.SlotRouter: g.Router,
		config.SlotSoma2:  g.Soma2,
	}
	for _, slot := range config.Slots {
		pc := slots[slot]
		if pc == nil {
			continue
		}
		lw.printf(4, "%s %s pic=0x%02x", slot, pc.Kind, pc.PIC)
		lw.printf(5, "fields %s", ir.Format(pc.Fields))

		shape, err := ir.ToIRValue(pc.Shape)
		if err != nil {
			return fmt.Errorf("render shape: %w", err)
		}
		lw.printf(5, "shape %s", ir.Format(shape))

		if len(pc.Inputs) > 0 {
			lw.printf(5, "in %s", refs(pc.Inputs))
		}
		if len(pc.Outputs) > 0 {
			lw.printf(5, "out %s", refs(pc.Outputs))
		}
		for i, h := range pc.Heads {
			hv, err := ir.ToIRValue(h)
			if err != nil {
				return fmt.Errorf("render head %d: %w", i, err)
			}
			lw.printf(5, "head %d %s", i, ir.Format(hv))
		}
	}
	return nil
}

func refs(rs []ir.BlockRef) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.Operand + "=" + r.BlockID
	}
	return strings.Join(parts, " ")
}

func blockLine(b ir.DataBlock) string {
	p := b.Position
	line := fmt.Sprintf("%s %s addr=0x%04x len=%d %s chip=(%d,%d) core=(%d,%d)",
		b.ID, b.Kind, b.Address, b.Length, b.Precision, p.ChipX, p.ChipY, p.CoreX, p.CoreY)
	if b.Kind == ir.BlockStatic {
		return line
	}
	line += " " + string(b.Direction)
	if p.StepGroup != nil && p.PhaseGroup != nil && p.Phase != nil {
		line += fmt.Sprintf(" step=%d group=%d phase=%d", *p.StepGroup, *p.PhaseGroup, *p.Phase)
	}
	return line + " socket=" + p.Socket
}

// nonZero renders v as an object without its zero-valued members.
func nonZero(v any) (ir.IRObject, error) {
	val, err := ir.ToIRValue(v)
	if err != nil {
		return nil, err
	}
	obj, ok := val.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", val)
	}
	out := make(ir.IRObject, len(obj))
	for k, x := range obj {
		switch x {
		case ir.IRInt(0), ir.IRBool(false):
			continue
		}
		out[k] = x
	}
	return out, nil
}
