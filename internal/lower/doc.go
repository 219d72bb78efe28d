// Package lower turns a decoded test case into the assembly IR.
//
// The pass has four parts:
//
//	Registry      allocates block ids "<prefix>_<n>" from one counter
//	outarea.go    computes the output areas of each phase
//	LowerPrimitive  translates one primitive case through its kind table
//	Convert       walks step group → phase group → core → phase
//
// Every primitive kind has a compiled table (kinds.go) of field rules,
// operands and shape and precision rules, selected by an exhaustive switch
// over config.Kind.
//
// An Engine holds all mutable state of one conversion and is not safe for
// concurrent use. Convert independent test cases on separate engines.
package lower
