package compiler

import (
	"bytes"
	"testing"
)

func TestAssembleDirectRef(t *testing.T) {
	// PUSH1 <offset of mark 2> ; JUMP ; JUMPDEST(mark 2) ; STOP
	stream := []AsmItem{
		RefItem{Direct: true, A: 2, Pushed: true},
		OpItem{Mnemonic: "JUMP"},
		MarkItem{Mark: 2},
		OpItem{Mnemonic: "JUMPDEST"},
		OpItem{Mnemonic: "STOP"},
	}
	got, err := Assemble(stream, Minimised)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x60, 0x03, 0x56, 0x5b, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestAssembleDeltaRefIsCodesize(t *testing.T) {
	stream := []AsmItem{
		MarkItem{Mark: 1},
		OpItem{Mnemonic: "JUMPDEST"},
		OpItem{Mnemonic: "STOP"},
		MarkItem{Mark: 2},
		RefItem{Direct: false, A: 1, B: 2, Pushed: true},
	}
	got, err := Assemble(stream, Minimised)
	if err != nil {
		t.Fatal(err)
	}
	// JUMPDEST STOP is 2 bytes, pushed minimally as PUSH1 0x02.
	want := []byte{0x5b, 0x00, 0x60, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestAssembleMinimisedConverges(t *testing.T) {
	// A long run of STOPs pushes the jump target's offset past 255, which
	// should force the fixed point to widen the ref from PUSH1 to PUSH2.
	var stream []AsmItem
	stream = append(stream, RefItem{Direct: true, A: 1, Pushed: true})
	for i := 0; i < 300; i++ {
		stream = append(stream, OpItem{Mnemonic: "STOP"})
	}
	stream = append(stream, MarkItem{Mark: 1}, OpItem{Mnemonic: "JUMPDEST"})

	got, err := Assemble(stream, Minimised)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x61 { // PUSH2
		t.Errorf("expected PUSH2 (0x61) at start, got %#x", got[0])
	}
}

func TestAssembleMaximisedAlwaysPush32(t *testing.T) {
	stream := []AsmItem{
		RefItem{Direct: true, A: 1, Pushed: true},
		MarkItem{Mark: 1},
		OpItem{Mnemonic: "JUMPDEST"},
	}
	got, err := Assemble(stream, Maximised)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x7f { // PUSH32
		t.Errorf("expected PUSH32 (0x7f), got %#x", got[0])
	}
	if len(got) != 1+32+1 {
		t.Errorf("expected 34 bytes, got %d", len(got))
	}
}

func TestAssembleFixedWidthOverflow(t *testing.T) {
	stream := []AsmItem{
		MarkItem{Mark: 1},
		RefItem{Direct: true, A: 2, Pushed: false, Width: 1},
		MarkItem{Mark: 2},
	}
	// Pad the stream so the offset of mark 2 overflows one byte.
	padded := append([]AsmItem{}, stream[0])
	for i := 0; i < 300; i++ {
		padded = append(padded, OpItem{Mnemonic: "STOP"})
	}
	padded = append(padded, stream[1], stream[2])

	if _, err := Assemble(padded, Minimised); err == nil {
		t.Error("expected an overflow error, got nil")
	}
}

func TestAssembleUnboundMarkIsError(t *testing.T) {
	stream := []AsmItem{
		RefItem{Direct: true, A: 99, Pushed: true},
	}
	if _, err := Assemble(stream, Minimised); err == nil {
		t.Error("expected an error for an unbound mark")
	}
}
