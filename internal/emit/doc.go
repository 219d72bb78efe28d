// Package emit finalizes a conversion: the human-readable assembly text,
// the canonical JSON tree, and one raw payload file per static block.
package emit
