package lower

import (
	"fmt"

	"github.com/roach88/neurasm/internal/ir"
)

// Coordinate is the ambient position of the walker. It is mutated in place
// while descending and read, never retained, by allocation calls.
type Coordinate struct {
	ChipX, ChipY int
	CoreX, CoreY int
	StepGroup    int
	PhaseGroup   int
	Phase        int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("step %d phase_group %d chip (%d,%d) core (%d,%d) phase %d",
		c.StepGroup, c.PhaseGroup, c.ChipX, c.ChipY, c.CoreX, c.CoreY, c.Phase)
}

// Registry allocates data block ids and keeps every block of one
// conversion. Ids are "<prefix>_<n>" with n strictly increasing from 1
// across all prefixes.
type Registry struct {
	counter int
	coord   *Coordinate
	blocks  []ir.DataBlock
	index   map[string]int
}

// NewRegistry creates a registry that stamps positions from coord.
func NewRegistry(coord *Coordinate) *Registry {
	return &Registry{
		coord: coord,
		index: make(map[string]int),
	}
}

func (r *Registry) nextID(prefix string) string {
	r.counter++
	return fmt.Sprintf("%s_%d", prefix, r.counter)
}

// AllocateStatic records a pre-loaded payload and returns its id.
// Static blocks carry chip/core position only.
func (r *Registry) AllocateStatic(prefix string, payload []int32, address int64, precision ir.Precision) string {
	id := r.nextID(prefix)
	r.add(ir.DataBlock{
		ID:        id,
		Kind:      ir.BlockStatic,
		Address:   address,
		Length:    int64(len(payload)),
		Precision: precision,
		Payload:   payload,
		Position: ir.BlockPosition{
			ChipX: r.coord.ChipX,
			ChipY: r.coord.ChipY,
			CoreX: r.coord.CoreX,
			CoreY: r.coord.CoreY,
		},
	})
	return id
}

// AllocateDynamic records a runtime I/O area and returns its id.
// socket names the producing family and area, e.g. "soma1.o".
func (r *Registry) AllocateDynamic(prefix string, address, length int64, precision ir.Precision, dir ir.Direction, socket string) string {
	id := r.nextID(prefix)
	step, group, phase := r.coord.StepGroup, r.coord.PhaseGroup, r.coord.Phase
	r.add(ir.DataBlock{
		ID:        id,
		Kind:      ir.BlockDynamic,
		Address:   address,
		Length:    length,
		Precision: precision,
		Direction: dir,
		Position: ir.BlockPosition{
			ChipX:      r.coord.ChipX,
			ChipY:      r.coord.ChipY,
			CoreX:      r.coord.CoreX,
			CoreY:      r.coord.CoreY,
			StepGroup:  &step,
			PhaseGroup: &group,
			Phase:      &phase,
			Socket:     socket,
		},
	})
	return id
}

func (r *Registry) add(b ir.DataBlock) {
	r.index[b.ID] = len(r.blocks)
	r.blocks = append(r.blocks, b)
}

// Counter is the number of ids handed out so far.
func (r *Registry) Counter() int {
	return r.counter
}

// Blocks returns every block in allocation order.
func (r *Registry) Blocks() []ir.DataBlock {
	out := make([]ir.DataBlock, len(r.blocks))
	copy(out, r.blocks)
	return out
}

// Block looks up a block by id.
func (r *Registry) Block(id string) (ir.DataBlock, bool) {
	i, ok := r.index[id]
	if !ok {
		return ir.DataBlock{}, false
	}
	return r.blocks[i], true
}

// packPayload masks each declared word to 32 bits, the width of one
// memory word, and reinterprets it as signed.
func packPayload(data []int64) []int32 {
	out := make([]int32, len(data))
	for i, w := range data {
		out[i] = int32(uint32(w))
	}
	return out
}
