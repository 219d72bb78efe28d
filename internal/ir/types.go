package ir

// Precision is the normalized element precision of an operand or data block.
type Precision string

const (
	PrecisionInt32   Precision = "INT_32"
	PrecisionInt16   Precision = "INT_16"
	PrecisionInt8    Precision = "INT_8"
	PrecisionUint8   Precision = "UINT_8"
	PrecisionTernary Precision = "TERNARY"
)

// BiasType selects between a scalar bias constant and a bias vector in memory.
type BiasType string

const (
	BiasConstant BiasType = "CONSTANT"
	BiasVector   BiasType = "VECTOR"
)

// Family is the pipeline stage a primitive runs in.
type Family string

const (
	FamilyAxon   Family = "axon"
	FamilySoma   Family = "soma"
	FamilyRouter Family = "router"
)

// BlockKind distinguishes pre-loaded payloads from runtime I/O areas.
type BlockKind string

const (
	BlockStatic  BlockKind = "STATIC"
	BlockDynamic BlockKind = "DYNAMIC"
)

// Direction of a dynamic block relative to the primitive that owns it.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// PacketSizeMode is the router head T flag.
type PacketSizeMode string

const (
	PacketMulti  PacketSizeMode = "MULTI"
	PacketSingle PacketSizeMode = "SINGLE"
)

// RelayType is the router head Q flag.
type RelayType string

const (
	RelayNone      RelayType = "NONE"
	RelayMulticast RelayType = "MULTICAST"
)

// BlockPosition locates a data block on the chip grid.
// Step/phase fields and Socket are only set for dynamic blocks.
type BlockPosition struct {
	ChipX      int    `json:"chip_x"`
	ChipY      int    `json:"chip_y"`
	CoreX      int    `json:"core_x"`
	CoreY      int    `json:"core_y"`
	StepGroup  *int   `json:"step_group,omitempty"`
	PhaseGroup *int   `json:"phase_group,omitempty"`
	Phase      *int   `json:"phase,omitempty"`
	Socket     string `json:"socket,omitempty"`
}

// DataBlock is a named memory region referenced by lowered primitives.
type DataBlock struct {
	ID        string        `json:"id"`
	Kind      BlockKind     `json:"kind"`
	Address   int64         `json:"address"`
	Length    int64         `json:"length"`
	Precision Precision     `json:"precision"`
	Direction Direction     `json:"direction,omitempty"` // dynamic only
	Payload   []int32       `json:"-"`                   // static only
	Position  BlockPosition `json:"position"`
}

// BlockRef binds a primitive operand to a data block id.
type BlockRef struct {
	Operand string `json:"operand"`
	BlockID string `json:"block_id"`
}

// Shape describes the tensor extents a primitive works over.
// Zero fields are absent for that kind.
type Shape struct {
	Features      int64 `json:"features,omitempty"`
	InputFeatures int64 `json:"input_features,omitempty"`
	KernelY       int64 `json:"kernel_y,omitempty"`
	KernelX       int64 `json:"kernel_x,omitempty"`
	ImageY        int64 `json:"image_y,omitempty"`
	ImageX        int64 `json:"image_x,omitempty"`
	Groups        int64 `json:"groups,omitempty"`
	Branches      int64 `json:"branches,omitempty"`
}

// RouterHead is one lowered routing table entry.
type RouterHead struct {
	IsInstantRequest bool           `json:"is_instant_request"`
	PacketSizeMode   PacketSizeMode `json:"packet_size_mode"`
	IsPacketFinish   bool           `json:"is_packet_finish"`
	RelayType        RelayType      `json:"relay_type"`
	DX               int64          `json:"dx"`
	DY               int64          `json:"dy"`
	Destination      int64          `json:"destination"`
	PackPerRhead     *int64         `json:"pack_per_rhead,omitempty"`
	AOffset          *int64         `json:"a_offset,omitempty"`
	Const            *int64         `json:"const,omitempty"`
	Enable           *int64         `json:"en,omitempty"`
}

// PrimitiveConfig is one lowered primitive case.
type PrimitiveConfig struct {
	PIC     int          `json:"pic"`
	Kind    string       `json:"kind"`
	Family  Family       `json:"family"`
	Fields  IRObject     `json:"fields"`
	Shape   Shape        `json:"shape"`
	Inputs  []BlockRef   `json:"inputs,omitempty"`
	Outputs []BlockRef   `json:"outputs,omitempty"`
	Heads   []RouterHead `json:"heads,omitempty"`
}

// PrimGroupConfig holds the primitives of one phase slot.
// Phase is 0 for instant primitives.
type PrimGroupConfig struct {
	Phase  int              `json:"phase"`
	Axon   *PrimitiveConfig `json:"axon,omitempty"`
	Soma1  *PrimitiveConfig `json:"soma1,omitempty"`
	Router *PrimitiveConfig `json:"router,omitempty"`
	Soma2  *PrimitiveConfig `json:"soma2,omitempty"`
}

// Registers is the per-core register file.
type Registers struct {
	ReceivePIAddrBase int64 `json:"receive_pi_addr_base"`
	PICXY             int64 `json:"pi_cxy"`
	PINx              int64 `json:"pi_nx"`
	PINy              int64 `json:"pi_ny"`
	PISignCXY         int64 `json:"pi_sign_cxy"`
	PISignNx          int64 `json:"pi_sign_nx"`
	PISignNy          int64 `json:"pi_sign_ny"`
	InstantPIEn       bool  `json:"instant_pi_en"`
	FixedInstantPI    bool  `json:"fixed_instant_pi"`
	InstantPINumber   int64 `json:"instant_pi_number"`
	PILoopEn          bool  `json:"pi_loop_en"`
	StartInstantPINum int64 `json:"start_instant_pi_num"`
	AddrInstantPIBase int64 `json:"addr_instant_pi_base"`
}

// CoreConfig is the lowered program of one core within a phase group.
type CoreConfig struct {
	ChipX        int               `json:"chip_x"`
	ChipY        int               `json:"chip_y"`
	CoreX        int               `json:"core_x"`
	CoreY        int               `json:"core_y"`
	StaticPrims  []PrimGroupConfig `json:"static_prim_list"`
	InstantPrims []PrimGroupConfig `json:"instant_prim_list"`
	Registers    Registers         `json:"registers"`
}

// PhaseGroupConfig groups cores that share a phase schedule.
type PhaseGroupConfig struct {
	ID    int          `json:"id"`
	Cores []CoreConfig `json:"cores"`
}

// SimClock is copied verbatim from the step group; never validated.
type SimClock struct {
	Clock *int64 `json:"clock,omitempty"`
	Mode  *int64 `json:"mode,omitempty"`
}

// StepConfig is one step group targeting a single chip.
type StepConfig struct {
	ID          int                `json:"id"`
	ChipX       int                `json:"chip_x"`
	ChipY       int                `json:"chip_y"`
	SimClock    SimClock           `json:"sim_clock"`
	PhaseGroups []PhaseGroupConfig `json:"phase_groups"`
}

// Assembly is the lowered output tree of one test case.
type Assembly struct {
	TestCase  string       `json:"test_case"`
	IRVersion string       `json:"ir_version"`
	Steps     []StepConfig `json:"step_config"`
}
