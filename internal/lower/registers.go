package lower

import (
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
)

// registerSetters maps upstream register names onto the register file.
var registerSetters = map[string]func(r *ir.Registers, v int64){
	"Receive_PI_addr_base": func(r *ir.Registers, v int64) { r.ReceivePIAddrBase = v },
	"PI_CXY":               func(r *ir.Registers, v int64) { r.PICXY = v },
	"PI_Nx":                func(r *ir.Registers, v int64) { r.PINx = v },
	"PI_Ny":                func(r *ir.Registers, v int64) { r.PINy = v },
	"PI_sign_CXY":          func(r *ir.Registers, v int64) { r.PISignCXY = v },
	"PI_sign_Nx":           func(r *ir.Registers, v int64) { r.PISignNx = v },
	"PI_sign_Ny":           func(r *ir.Registers, v int64) { r.PISignNy = v },
	"instant_PI_en":        func(r *ir.Registers, v int64) { r.InstantPIEn = v != 0 },
	"fixed_instant_PI":     func(r *ir.Registers, v int64) { r.FixedInstantPI = v != 0 },
	"instant_PI_number":    func(r *ir.Registers, v int64) { r.InstantPINumber = v },
	"PI_loop_en":           func(r *ir.Registers, v int64) { r.PILoopEn = v != 0 },
	"start_instant_PI_num": func(r *ir.Registers, v int64) { r.StartInstantPINum = v },
	"Addr_instant_PI_base": func(r *ir.Registers, v int64) { r.AddrInstantPIBase = v },
}

// RegisterNames lists the register keys a core config understands.
func RegisterNames() []string {
	names := lo.Keys(registerSetters)
	sort.Strings(names)
	return names
}

// lowerRegisters copies known registers. Unknown keys are dropped.
func lowerRegisters(raw map[string]any, log *slog.Logger) (ir.Registers, error) {
	var regs ir.Registers

	keys := lo.Keys(raw)
	sort.Strings(keys)
	for _, k := range keys {
		set, ok := registerSetters[k]
		if !ok {
			log.Debug("dropping unknown register", "name", k)
			continue
		}
		v, err := config.ScalarInt(raw[k])
		if err != nil {
			return ir.Registers{}, shapeErr(CodeConfigShape, "registers."+k, "%v", err)
		}
		set(&regs, v)
	}
	return regs, nil
}
