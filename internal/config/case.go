package config

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

// TestCase is one complete behavioral configuration to lower.
type TestCase struct {
	// Name identifies the test case and names its output directory.
	Name string `yaml:"name" json:"name"`

	// StepGroups in execution order.
	StepGroups []StepGroup `yaml:"step_groups" json:"step_groups,omitempty"`

	// Source is the file the case was loaded from, if any.
	Source string `yaml:"-" json:"-"`
}

// StepGroup holds phase groups that run on one chip.
// Clock and Mode configure the simulator clock and are copied verbatim.
type StepGroup struct {
	ID          int          `yaml:"id" json:"id"`
	Clock       *int64       `yaml:"clock,omitempty" json:"clock,omitempty"`
	Mode        *int64       `yaml:"mode,omitempty" json:"mode,omitempty"`
	PhaseGroups []PhaseGroup `yaml:"phase_groups" json:"phase_groups,omitempty"`
}

// PhaseGroup lists the cores scheduled together.
type PhaseGroup struct {
	ID    int         `yaml:"id" json:"id"`
	Cores []CoreEntry `yaml:"cores" json:"cores,omitempty"`
}

// CoreEntry is the program of one core: chip and core coordinates are [x, y].
type CoreEntry struct {
	Chip         []int          `yaml:"chip" json:"chip,omitempty"`
	Core         []int          `yaml:"core" json:"core,omitempty"`
	Prims        []PrimGroup    `yaml:"prims" json:"prims,omitempty"`
	InstantPrims []PrimGroup    `yaml:"instant_prims,omitempty" json:"instant_prims,omitempty"`
	Registers    map[string]any `yaml:"registers,omitempty" json:"registers,omitempty"`
}

// PrimGroup holds the primitives active in one phase. Any slot may be nil.
type PrimGroup struct {
	Axon   *PrimitiveCase `yaml:"axon" json:"axon,omitempty"`
	Soma1  *PrimitiveCase `yaml:"soma1" json:"soma1,omitempty"`
	Router *PrimitiveCase `yaml:"router" json:"router,omitempty"`
	Soma2  *PrimitiveCase `yaml:"soma2" json:"soma2,omitempty"`
}

// MemoryBlock is a payload pre-loaded at Start before the phase runs.
type MemoryBlock struct {
	Start int64   `yaml:"start" json:"start"`
	Data  []int64 `yaml:"data" json:"data,omitempty"`
	Mode  int64   `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// PrimitiveCase is one primitive as declared upstream.
// Fields holds every scalar field other than pic, normalized to integers
// (booleans become 0/1). Cases are never mutated after decoding.
type PrimitiveCase struct {
	PIC          int
	Fields       map[string]int64
	RouterTable  []map[string]int64
	MemoryBlocks []MemoryBlock
}

// Kind resolves the primitive variant from the PIC.
func (c *PrimitiveCase) Kind() (Kind, bool) {
	return KindOf(c.PIC)
}

// Int returns a field value and whether it was declared.
func (c *PrimitiveCase) Int(name string) (int64, bool) {
	v, ok := c.Fields[name]
	return v, ok
}

// Get returns a field value, 0 when absent.
func (c *PrimitiveCase) Get(name string) int64 {
	return c.Fields[name]
}

// Truthy reports whether a flag field is declared and non-zero.
func (c *PrimitiveCase) Truthy(name string) bool {
	return c.Fields[name] != 0
}

// UnmarshalYAML splits the flat upstream mapping into scalar fields,
// the routing table and memory blocks.
func (c *PrimitiveCase) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return &ShapeError{Line: node.Line, Message: fmt.Sprintf("primitive case: %v", err)}
	}
	pic, ok := raw["pic"]
	if !ok {
		return &ShapeError{Line: node.Line, Message: "primitive case: pic is required"}
	}
	picVal, err := scalarInt(pic)
	if err != nil {
		return &ShapeError{Line: node.Line, Message: fmt.Sprintf("pic: %v", err)}
	}
	c.PIC = int(picVal)
	c.Fields = make(map[string]int64, len(raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := raw[k]
		switch k {
		case "pic":
			continue
		case "memory_blocks":
			blocks, err := decodeMemoryBlocks(v)
			if err != nil {
				return &ShapeError{Line: node.Line, Message: fmt.Sprintf("memory_blocks: %v", err)}
			}
			c.MemoryBlocks = blocks
		case "router_table":
			table, err := decodeRouterTable(v)
			if err != nil {
				return &ShapeError{Line: node.Line, Message: fmt.Sprintf("router_table: %v", err)}
			}
			c.RouterTable = table
		default:
			if v == nil {
				continue
			}
			n, err := scalarInt(v)
			if err != nil {
				return &ShapeError{Line: node.Line, Message: fmt.Sprintf("field %s: %v", k, err)}
			}
			c.Fields[k] = n
		}
	}
	return nil
}

// MarshalYAML writes the flat upstream form back out.
func (c *PrimitiveCase) MarshalYAML() (any, error) {
	out := make(map[string]any, len(c.Fields)+3)
	out["pic"] = c.PIC
	for k, v := range c.Fields {
		out[k] = v
	}
	if len(c.RouterTable) > 0 {
		out["router_table"] = c.RouterTable
	}
	if len(c.MemoryBlocks) > 0 {
		out["memory_blocks"] = c.MemoryBlocks
	}
	return out, nil
}

// MarshalJSON mirrors MarshalYAML so input digests see the flat form.
func (c *PrimitiveCase) MarshalJSON() ([]byte, error) {
	m, _ := c.MarshalYAML()
	return json.Marshal(m)
}

func decodeMemoryBlocks(v any) ([]MemoryBlock, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	blocks := make([]MemoryBlock, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected a mapping, got %T", i, item)
		}
		start, err := scalarInt(m["start"])
		if err != nil {
			return nil, fmt.Errorf("[%d].start: %v", i, err)
		}
		var mode int64
		if mv, ok := m["mode"]; ok && mv != nil {
			if mode, err = scalarInt(mv); err != nil {
				return nil, fmt.Errorf("[%d].mode: %v", i, err)
			}
		}
		var data []int64
		if dv, ok := m["data"]; ok && dv != nil {
			items, ok := dv.([]any)
			if !ok {
				return nil, fmt.Errorf("[%d].data: expected a list, got %T", i, dv)
			}
			data = make([]int64, len(items))
			for j, w := range items {
				if data[j], err = scalarInt(w); err != nil {
					return nil, fmt.Errorf("[%d].data[%d]: %v", i, j, err)
				}
			}
		}
		blocks = append(blocks, MemoryBlock{Start: start, Data: data, Mode: mode})
	}
	return blocks, nil
}

func decodeRouterTable(v any) ([]map[string]int64, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	table := make([]map[string]int64, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected a mapping, got %T", i, item)
		}
		row := make(map[string]int64, len(m))
		for k, fv := range m {
			n, err := scalarInt(fv)
			if err != nil {
				return nil, fmt.Errorf("[%d].%s: %v", i, k, err)
			}
			row[k] = n
		}
		table = append(table, row)
	}
	return table, nil
}

// scalarInt accepts the integer and boolean encodings upstream configs use.
func scalarInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integer value %v", n)
		}
		return int64(n), nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

// ScalarInt is scalarInt for register maps decoded outside this package.
func ScalarInt(v any) (int64, error) {
	return scalarInt(v)
}
