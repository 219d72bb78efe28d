package ir

// precisionCodes maps the 2-bit precision field encoding.
var precisionCodes = map[int64]Precision{
	0: PrecisionInt32,
	1: PrecisionInt8,
	2: PrecisionUint8,
	3: PrecisionTernary,
}

// biasCodes maps bias_type. Codes 0 and 1 both mean a constant bias.
var biasCodes = map[int64]BiasType{
	0: BiasConstant,
	1: BiasConstant,
	2: BiasVector,
	3: BiasVector,
}

// fireTypePrecision is the spike output precision of the LIF soma by fire_type.
var fireTypePrecision = map[int64]Precision{
	0: PrecisionInt32,
	1: PrecisionInt32,
	2: PrecisionInt8,
	3: PrecisionInt8,
	4: PrecisionInt8,
	5: PrecisionTernary,
	6: PrecisionInt32,
	7: PrecisionInt8,
}

// PrecisionFromCode resolves a precision field code.
func PrecisionFromCode(code int64) (Precision, bool) {
	p, ok := precisionCodes[code]
	return p, ok
}

// BiasTypeFromCode resolves a bias_type field code.
func BiasTypeFromCode(code int64) (BiasType, bool) {
	b, ok := biasCodes[code]
	return b, ok
}

// FireTypePrecision resolves the LIF spike precision for a fire_type code.
func FireTypePrecision(fireType int64) (Precision, bool) {
	p, ok := fireTypePrecision[fireType]
	return p, ok
}

// WordBits is the number of payload bits one element of p occupies.
func (p Precision) WordBits() int {
	switch p {
	case PrecisionInt32:
		return 32
	case PrecisionInt16:
		return 16
	case PrecisionInt8, PrecisionUint8:
		return 8
	case PrecisionTernary:
		return 2
	default:
		return 0
	}
}
