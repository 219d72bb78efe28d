package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows migrating the algorithm.
const (
	DomainInput    = "neurasm/input/v1"
	DomainAssembly = "neurasm/assembly/v1"
	DomainPayload  = "neurasm/payload/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InputDigest identifies a decoded test-case input independent of its
// file format (YAML and CUE sources with the same content agree).
func InputDigest(v any) (string, error) {
	irv, err := ToIRValue(v)
	if err != nil {
		return "", fmt.Errorf("InputDigest: %w", err)
	}
	canonical, err := MarshalCanonical(irv)
	if err != nil {
		return "", fmt.Errorf("InputDigest: %w", err)
	}
	return hashWithDomain(DomainInput, canonical), nil
}

// AssemblyDigest identifies a lowered assembly tree.
func AssemblyDigest(asm *Assembly) (string, error) {
	irv, err := ToIRValue(asm)
	if err != nil {
		return "", fmt.Errorf("AssemblyDigest: %w", err)
	}
	canonical, err := MarshalCanonical(irv)
	if err != nil {
		return "", fmt.Errorf("AssemblyDigest: %w", err)
	}
	return hashWithDomain(DomainAssembly, canonical), nil
}

// PayloadDigest hashes a static payload as little-endian int32 words,
// the same bytes written to its block file.
func PayloadDigest(payload []int32) string {
	buf := make([]byte, 4*len(payload))
	for i, w := range payload {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(w))
	}
	return hashWithDomain(DomainPayload, buf)
}
