package emit

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/neurasm/internal/ir"
	"github.com/roach88/neurasm/internal/lower"
)

// File names inside a test case directory.
const (
	TextFile = "assembly.txt"
	JSONFile = "assembly.json"
	DataDir  = "data"
)

// Artifact describes a finalized test case directory.
type Artifact struct {
	Dir            string
	AssemblyDigest string
	StaticBlocks   int
}

// WriteBlocks writes the payload of every static block to dir/<block id>
// as consecutive little-endian 32-bit signed words. Dynamic blocks are
// skipped.
func WriteBlocks(dir string, blocks []ir.DataBlock) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create data dir: %w", err)
	}
	n := 0
	for _, b := range blocks {
		if b.Kind != ir.BlockStatic {
			continue
		}
		if err := writePayload(filepath.Join(dir, b.ID), b.Payload); err != nil {
			return n, fmt.Errorf("block %s: %w", b.ID, err)
		}
		n++
	}
	return n, nil
}

func writePayload(path string, payload []int32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, payload); err != nil {
		return err
	}
	return w.Flush()
}

// ReadPayload reads a block file written by WriteBlocks.
func ReadPayload(path string) ([]int32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: size %d is not a whole number of words", path, len(data))
	}
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}

// Finalize writes <outDir>/<test case>/ with the text artifact, the
// canonical JSON tree and the data directory. Everything is written into a
// sibling temp directory first and renamed into place, so a failure leaves
// any previous output untouched.
func Finalize(outDir string, res *lower.Result) (*Artifact, error) {
	name := res.Assembly.TestCase
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, fmt.Errorf("test case name %q cannot name a directory", name)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	digest, err := ir.AssemblyDigest(res.Assembly)
	if err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp(outDir, "."+name+"-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(tmp)
		}
	}()

	if err := writeText(filepath.Join(tmp, TextFile), res); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(tmp, JSONFile), res.Assembly); err != nil {
		return nil, err
	}
	n, err := WriteBlocks(filepath.Join(tmp, DataDir), res.Blocks)
	if err != nil {
		return nil, err
	}

	final := filepath.Join(outDir, name)
	if err := swapDir(tmp, final); err != nil {
		return nil, err
	}
	committed = true

	return &Artifact{Dir: final, AssemblyDigest: digest, StaticBlocks: n}, nil
}

// swapDir moves staged into place at final. An existing final is renamed
// aside first and restored if the move fails.
func swapDir(staged, final string) error {
	old := ""
	if _, err := os.Stat(final); err == nil {
		old = staged + ".old"
		if err := os.Rename(final, old); err != nil {
			return fmt.Errorf("set aside previous output: %w", err)
		}
	}
	if err := rename(staged, final); err != nil {
		if old != "" {
			if rerr := os.Rename(old, final); rerr != nil {
				return fmt.Errorf("commit output: %w (previous output left at %s: %v)", err, old, rerr)
			}
		}
		return fmt.Errorf("commit output: %w", err)
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("remove previous output: %w", err)
		}
	}
	return nil
}

// rename is os.Rename, replaceable in tests.
var rename = os.Rename

func writeText(path string, res *lower.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := RenderText(w, res.Assembly, res.Blocks); err != nil {
		return err
	}
	return w.Flush()
}

func writeJSON(path string, asm *ir.Assembly) error {
	v, err := ir.ToIRValue(asm)
	if err != nil {
		return err
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
