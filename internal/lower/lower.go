package lower

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
)

// LevelTrace sits below Debug and logs every allocation.
const LevelTrace slog.Level = slog.LevelDebug - 4

// DefaultReceiveBase is the high-bank offset router receive areas start at.
const DefaultReceiveBase = config.DefaultReceiveBase

// Engine lowers one test case. It owns the walker coordinate and the
// block registry, so it must not be shared between goroutines or reused
// for a second test case. Independent test cases each get their own Engine.
type Engine struct {
	receiveBase int64
	log         *slog.Logger
	coord       Coordinate
	registry    *Registry
	used        bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithReceiveBase overrides the router receive bank offset.
func WithReceiveBase(base int64) Option {
	return func(e *Engine) {
		e.receiveBase = base
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates a fresh engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		receiveBase: DefaultReceiveBase,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = NewRegistry(&e.coord)
	return e
}

// Registry exposes the engine's block registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Coordinate returns a copy of the current walker position.
func (e *Engine) Coordinate() Coordinate {
	return e.coord
}

// SetCoordinate moves the engine to a position. Convert updates the
// coordinate fields itself; this is for callers lowering single primitives.
func (e *Engine) SetCoordinate(c Coordinate) {
	e.coord = c
}

func (e *Engine) trace(msg string, args ...any) {
	e.log.Log(context.Background(), LevelTrace, msg, args...)
}

// staticAlloc is one planned static block.
type staticAlloc struct {
	operand   string
	address   int64
	payload   []int32
	precision ir.Precision
}

// LowerPrimitive translates one primitive case sitting in slot into its
// config. areas are the output areas computed for that slot in the current
// phase. Every check runs before the first block is allocated, so a failing
// case leaves the registry untouched.
func (e *Engine) LowerPrimitive(slot config.Slot, c *config.PrimitiveCase, areas []Area) (*ir.PrimitiveConfig, error) {
	kind, ok := c.Kind()
	if !ok {
		return nil, shapeErr(CodeUnknownPIC, "pic", "unknown primitive code 0x%02x", c.PIC)
	}
	if !slot.Accepts(kind) {
		return nil, shapeErr(CodeFamilySlot, "pic", "%s (0x%02x) cannot occupy slot %s", kind, c.PIC, slot)
	}
	def, ok := kindDefOf(kind)
	if !ok {
		return nil, shapeErr(CodeUnknownPIC, "pic", "no lowering rules for %s", kind)
	}

	fields, err := applyFields(c, def.fields)
	if err != nil {
		return nil, err
	}

	statics, err := e.planStatics(kind, def, c)
	if err != nil {
		return nil, err
	}
	outputs, err := e.planOutputs(slot, def, c, areas)
	if err != nil {
		return nil, err
	}

	var heads []ir.RouterHead
	if kind == config.KindRouter {
		if heads, err = lowerHeads(c.RouterTable); err != nil {
			return nil, err
		}
	}

	prefix := string(slot)
	pc := &ir.PrimitiveConfig{
		PIC:     c.PIC,
		Kind:    kind.String(),
		Family:  def.family,
		Fields:  fields,
		Shape:   def.shape(c),
		Heads:   heads,
		Inputs:  make([]ir.BlockRef, 0, len(statics)),
		Outputs: make([]ir.BlockRef, 0, len(outputs)),
	}
	for _, s := range statics {
		id := e.registry.AllocateStatic(prefix+"_"+s.operand, s.payload, s.address, s.precision)
		e.trace("static block", "id", id, "address", s.address, "words", len(s.payload), "precision", s.precision)
		pc.Inputs = append(pc.Inputs, ir.BlockRef{Operand: s.operand, BlockID: id})
	}
	for _, o := range outputs {
		id := e.registry.AllocateDynamic(prefix+"_"+o.area.Name, o.area.Address, o.area.Length,
			o.precision, o.direction, prefix+"."+o.area.Name)
		e.trace("dynamic block", "id", id, "address", o.area.Address, "length", o.area.Length, "precision", o.precision)
		pc.Outputs = append(pc.Outputs, ir.BlockRef{Operand: o.area.Name, BlockID: id})
	}

	e.log.Debug("lowered primitive",
		"at", e.coord.String(), "slot", slot, "kind", kind.String(),
		"inputs", len(pc.Inputs), "outputs", len(pc.Outputs))
	return pc, nil
}

// planStatics matches memory blocks to operands and resolves the static
// block precision of each match.
func (e *Engine) planStatics(kind config.Kind, def kindDef, c *config.PrimitiveCase) ([]staticAlloc, error) {
	vectorBias := false
	if code, ok := c.Int("bias_type"); ok {
		b, _ := ir.BiasTypeFromCode(code)
		vectorBias = b == ir.BiasVector
	}

	var plan []staticAlloc
	sends := 0
	for i, mb := range c.MemoryBlocks {
		matches := e.matchOperands(def, c, mb.Start)

		if def.skipBlockCheck {
			if len(matches) == 0 {
				e.log.Debug("memory block matches no operand", "kind", kind.String(), "start", mb.Start)
				continue
			}
			matches = matches[:1]
		} else if len(matches) != 1 {
			names := make([]string, len(matches))
			for j, m := range matches {
				names[j] = m.name
			}
			return nil, validationErr(CodeAddressMatch, fmt.Sprintf("memory_blocks[%d]", i),
				"start 0x%x matches %d named addresses %v, want exactly one", mb.Start, len(matches), names)
		}

		op := matches[0]
		if !op.static {
			continue
		}
		if op.name == "bias" && !vectorBias {
			e.log.Debug("constant bias, memory block ignored", "start", mb.Start)
			continue
		}
		if kind == config.KindRouter {
			sends++
			if sends > 1 {
				return nil, validationErr(CodeMultipleSend, fmt.Sprintf("memory_blocks[%d]", i),
					"router declares more than one send block")
			}
		}

		p, err := op.precision(c)
		if err != nil {
			return nil, err
		}
		plan = append(plan, staticAlloc{
			operand:   op.name,
			address:   mb.Start,
			payload:   packPayload(mb.Data),
			precision: p,
		})
	}
	return plan, nil
}

// matchOperands returns the operands whose declared address equals start.
// Undeclared address fields never match.
func (e *Engine) matchOperands(def kindDef, c *config.PrimitiveCase, start int64) []operand {
	var out []operand
	for _, op := range def.operands {
		if addr, ok := c.Int(op.addrField); ok && addr == start {
			out = append(out, op)
		}
	}
	return out
}

type outputAlloc struct {
	area      Area
	precision ir.Precision
	direction ir.Direction
}

func (e *Engine) planOutputs(slot config.Slot, def kindDef, c *config.PrimitiveCase, areas []Area) ([]outputAlloc, error) {
	switch def.family {
	case ir.FamilyAxon:
		if len(areas) > 1 {
			return nil, validationErr(CodeOutputAreaCount, "", "axon has %d output areas, want at most one", len(areas))
		}
	case ir.FamilyRouter:
		if c.Truthy("Receive_en") && len(areas) != 1 {
			return nil, validationErr(CodeMissingReceive, "Receive_en",
				"receive enabled with %d router output areas, want exactly one", len(areas))
		}
		if !c.Truthy("Receive_en") {
			return nil, nil
		}
	}

	dir := ir.DirectionOut
	if def.family == ir.FamilyRouter {
		dir = ir.DirectionIn
	}

	out := make([]outputAlloc, 0, len(areas))
	for _, a := range areas {
		p, err := def.outPrecision(c, a)
		if err != nil {
			return nil, err
		}
		out = append(out, outputAlloc{area: a, precision: p, direction: dir})
	}
	if len(out) > 0 {
		e.trace("output areas", "slot", slot, "count", len(out))
	}
	return out, nil
}
