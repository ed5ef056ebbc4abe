// Package disasm is a disassembler for EVM bytecode, used by the CLI's
// -d mode as a convenience companion to the assembler: a quick way to
// inspect what a compile actually produced.
package disasm

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/huff-language/huff2/internal/opcodes"
)

// Disassembler turns EVM bytecode into readable text instructions.
type Disassembler struct {
	uppercase bool
	showPC    bool
	noBlanks  bool

	pcBuffer, pcHex []byte
}

// New creates a disassembler with default settings.
func New() *Disassembler {
	return new(Disassembler)
}

// SetUppercase toggles printing instruction names in uppercase.
func (d *Disassembler) SetUppercase(on bool) { d.uppercase = on }

// SetShowPC toggles printing of program counter on each line.
func (d *Disassembler) SetShowPC(on bool) { d.showPC = on }

// SetShowBlocks toggles printing of blank lines at block boundaries
// (after a jump, before a JUMPDEST).
func (d *Disassembler) SetShowBlocks(on bool) { d.noBlanks = !on }

// Disassemble is the main entry point: it runs through bytecode and
// writes one line per instruction to outW.
func (d *Disassembler) Disassemble(bytecode []byte, outW io.Writer) error {
	d.pcBuffer = make([]byte, digitsOfPC(len(bytecode)))
	d.pcHex = make([]byte, hex.EncodedLen(len(d.pcBuffer)))
	out := bufio.NewWriter(outW)

	var prevOp *opcodes.Op
	for pc := 0; pc < len(bytecode); pc++ {
		op, ok := opcodes.ByCode(bytecode[pc])
		if ok {
			d.newline(out, prevOp, &op)
		} else {
			d.newline(out, prevOp, nil)
		}
		if !ok {
			d.printInvalid(out, bytecode[pc])
			prevOp = nil
			continue
		}
		d.printPrefix(out, pc)
		d.printOp(out, op)
		if size, isPush := op.IsPush(); isPush && size > 0 {
			if len(bytecode)-1-pc < size {
				d.newline(out, &op, nil)
				return fmt.Errorf("bytecode truncated, ends within %s", op.Name)
			}
			data := bytecode[pc+1 : pc+size+1]
			d.printPushData(out, data)
			pc += size
		}
		cp := op
		prevOp = &cp
	}
	d.newline(out, prevOp, nil)
	return out.Flush()
}

func (d *Disassembler) printPrefix(out io.Writer, pc int) {
	if !d.showPC {
		return
	}
	for i := 0; i < len(d.pcBuffer); i++ {
		d.pcBuffer[len(d.pcBuffer)-1-i] = byte(pc >> (8 * i))
	}
	hex.Encode(d.pcHex, d.pcBuffer)
	fmt.Fprintf(out, "%s: ", d.pcHex)
}

func (d *Disassembler) printInvalid(out io.Writer, b byte) {
	fmt.Fprintf(out, "<invalid %#x>\n", b)
}

func (d *Disassembler) printOp(out io.Writer, op opcodes.Op) {
	name := op.Name
	if !d.uppercase {
		name = strings.ToLower(op.Name)
	}
	fmt.Fprint(out, name)
}

func (d *Disassembler) printPushData(out io.Writer, data []byte) {
	fmt.Fprintf(out, " %#x", data)
}

// newline writes the line terminator after an instruction, plus an extra
// blank line at a block boundary: after a jump, or before a JUMPDEST.
func (d *Disassembler) newline(out io.Writer, prevOp *opcodes.Op, nextOp *opcodes.Op) {
	if prevOp == nil {
		return
	}
	out.Write([]byte{'\n'})
	if d.noBlanks || nextOp == nil {
		return
	}
	if prevOp.IsJump() || nextOp.IsJumpDest() {
		out.Write([]byte{'\n'})
	}
}

func digitsOfPC(codesize int) int {
	switch {
	case codesize < (1<<16 - 1):
		return 2
	case codesize < (1<<24 - 1):
		return 3
	case codesize < (1<<32 - 1):
		return 4
	default:
		return 8
	}
}
