// Package harness runs lowering conformance scenarios.
//
// A scenario names one test case file and a list of assertions about the
// lowering outcome: which data blocks were allocated, in what order, with
// which address, length and precision, or which error code the lowering
// must fail with. Scenarios are YAML:
//
//	name: mlp_blocks
//	description: MLP operands become static blocks
//	case: ../cases/mlp.yaml
//	assertions:
//	  - type: block_count
//	    kind: STATIC
//	    count: 3
//	  - type: block_exists
//	    id: axon_o_4
//	    length: 256
//
// Block tables can also be compared against golden snapshots with
// RunWithGolden. Snapshots are canonical JSON, so they are byte-stable
// across runs.
package harness
