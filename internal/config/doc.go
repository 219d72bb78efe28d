// Package config decodes the upstream behavioral configuration: test cases
// made of step groups, phase groups, cores and primitive groups, each
// primitive a flat mapping of integer fields keyed by its PIC.
//
// Inputs are YAML, JSON or CUE. CUE values are evaluated, checked for
// concreteness and exported to JSON, then decoded like any other input.
//
// Tool settings (neurasm.toml) live here too.
package config
