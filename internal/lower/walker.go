package lower

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
)

// Result is the output of one conversion: the assembly tree and every data
// block it references, in allocation order.
type Result struct {
	Assembly *ir.Assembly
	Blocks   []ir.DataBlock
}

// StaticBlocks returns the blocks that carry a payload.
func (r *Result) StaticBlocks() []ir.DataBlock {
	return lo.Filter(r.Blocks, func(b ir.DataBlock, _ int) bool {
		return b.Kind == ir.BlockStatic
	})
}

// Convert walks a test case depth first and lowers every primitive.
// Conversion is fail-fast: the first error aborts it and no result is
// returned.
func (e *Engine) Convert(tc *config.TestCase) (*Result, error) {
	if e.used {
		return nil, fmt.Errorf("engine already converted a test case")
	}
	e.used = true

	asm := &ir.Assembly{
		TestCase:  tc.Name,
		IRVersion: ir.IRVersion,
		Steps:     make([]ir.StepConfig, 0, len(tc.StepGroups)),
	}

	for _, sg := range tc.StepGroups {
		step, err := e.convertStep(sg)
		if err != nil {
			return nil, err
		}
		asm.Steps = append(asm.Steps, step)
	}

	e.log.Info("converted test case", "name", tc.Name, "steps", len(asm.Steps), "blocks", e.registry.Counter())
	return &Result{Assembly: asm, Blocks: e.registry.Blocks()}, nil
}

func (e *Engine) convertStep(sg config.StepGroup) (ir.StepConfig, error) {
	chipX, chipY, err := stepChip(sg)
	if err != nil {
		return ir.StepConfig{}, err
	}

	step := ir.StepConfig{
		ID:          sg.ID,
		ChipX:       chipX,
		ChipY:       chipY,
		SimClock:    ir.SimClock{Clock: sg.Clock, Mode: sg.Mode},
		PhaseGroups: make([]ir.PhaseGroupConfig, 0, len(sg.PhaseGroups)),
	}
	e.coord.StepGroup = sg.ID

	for _, pg := range sg.PhaseGroups {
		e.coord.PhaseGroup = pg.ID
		group := ir.PhaseGroupConfig{ID: pg.ID, Cores: make([]ir.CoreConfig, 0, len(pg.Cores))}
		for _, core := range pg.Cores {
			cc, err := e.convertCore(core)
			if err != nil {
				return ir.StepConfig{}, err
			}
			group.Cores = append(group.Cores, cc)
		}
		step.PhaseGroups = append(step.PhaseGroups, group)
	}
	return step, nil
}

// stepChip returns the single chip every core of the step group targets.
func stepChip(sg config.StepGroup) (int, int, error) {
	var chips [][2]int
	for _, pg := range sg.PhaseGroups {
		for i, core := range pg.Cores {
			if len(core.Chip) != 2 || len(core.Core) != 2 {
				return 0, 0, shapeErr(CodeConfigShape,
					fmt.Sprintf("step_groups[%d].phase_groups[%d].cores[%d]", sg.ID, pg.ID, i),
					"chip and core must be [x, y] pairs")
			}
			chips = append(chips, [2]int{core.Chip[0], core.Chip[1]})
		}
	}
	chips = lo.Uniq(chips)
	switch len(chips) {
	case 0:
		return 0, 0, nil
	case 1:
		return chips[0][0], chips[0][1], nil
	default:
		return 0, 0, shapeErr(CodeChipDisagreement, fmt.Sprintf("step_groups[%d]", sg.ID),
			"phase groups target %d chips %v, want one", len(chips), chips)
	}
}

func (e *Engine) convertCore(core config.CoreEntry) (ir.CoreConfig, error) {
	e.coord.ChipX, e.coord.ChipY = core.Chip[0], core.Chip[1]
	e.coord.CoreX, e.coord.CoreY = core.Core[0], core.Core[1]

	cc := ir.CoreConfig{
		ChipX:        core.Chip[0],
		ChipY:        core.Chip[1],
		CoreX:        core.Core[0],
		CoreY:        core.Core[1],
		StaticPrims:  make([]ir.PrimGroupConfig, 0, len(core.Prims)),
		InstantPrims: make([]ir.PrimGroupConfig, 0, len(core.InstantPrims)),
	}

	for i := range core.Prims {
		e.coord.Phase = i + 1
		g, err := e.convertGroup(&core.Prims[i])
		if err != nil {
			return ir.CoreConfig{}, err
		}
		cc.StaticPrims = append(cc.StaticPrims, g)
	}

	for i := range core.InstantPrims {
		e.coord.Phase = 0
		g, err := e.convertGroup(&core.InstantPrims[i])
		if err != nil {
			return ir.CoreConfig{}, err
		}
		cc.InstantPrims = append(cc.InstantPrims, g)
	}

	regs, err := lowerRegisters(core.Registers, e.log)
	if err != nil {
		return ir.CoreConfig{}, withPosition(err, e.coord.String())
	}
	cc.Registers = regs
	return cc, nil
}

// convertGroup lowers the primitives of one phase. Output areas are
// computed from this phase's cases and consumed by this phase only.
func (e *Engine) convertGroup(g *config.PrimGroup) (ir.PrimGroupConfig, error) {
	areas := ComputeOutputAreas(g.Axon, g.Soma1, g.Router, g.Soma2, e.receiveBase)
	out := ir.PrimGroupConfig{Phase: e.coord.Phase}

	for _, slot := range config.Slots {
		c := g.Case(slot)
		if c == nil {
			continue
		}
		pc, err := e.LowerPrimitive(slot, c, areas.For(slot))
		if err != nil {
			return ir.PrimGroupConfig{}, withPosition(err, fmt.Sprintf("%s %s", e.coord, slot))
		}
		switch slot {
		case config.SlotAxon:
			out.Axon = pc
		case config.SlotSoma1:
			out.Soma1 = pc
		case config.SlotRouter:
			out.Router = pc
		case config.SlotSoma2:
			out.Soma2 = pc
		}
	}
	return out, nil
}
