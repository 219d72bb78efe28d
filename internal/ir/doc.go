// Package ir defines the assembly intermediate representation produced by
// the lowering pass: normalized enums, data blocks, and the
// step → phase group → core → primitive config tree.
//
// ir imports nothing internal. Every other package imports ir.
//
// Constraints:
//   - no float types; hardware fields are integers
//   - JSON tags use snake_case
//   - digests use RFC 8785 canonical JSON with SHA-256 domain separation
package ir
