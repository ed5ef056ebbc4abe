package compiler

import (
	"bytes"
	"testing"
)

func TestWrapDeploymentEmpty(t *testing.T) {
	out, err := WrapDeployment(nil, Minimised)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty output, got % x", out)
	}
}

func TestWrapDeploymentSmall(t *testing.T) {
	runtime := []byte{0x60, 0x01, 0x00} // PUSH1 0x01 STOP, n=3
	out, err := WrapDeployment(runtime, Minimised)
	if err != nil {
		t.Fatal(err)
	}
	// PUSH3 <runtime> RETURNDATASIZE MSTORE PUSH1 3 PUSH1 29 RETURN
	want := []byte{0x62, 0x60, 0x01, 0x00, 0x3d, 0x52, 0x60, 0x03, 0x60, 0x1d, 0xf3}
	if !bytes.Equal(out, want) {
		t.Errorf("got % x, want % x", out, want)
	}
}

func TestWrapDeploymentExactlyOneWord(t *testing.T) {
	runtime := make([]byte, 32)
	for i := range runtime {
		runtime[i] = byte(i)
	}
	out, err := WrapDeployment(runtime, Minimised)
	if err != nil {
		t.Fatal(err)
	}
	// PUSH32 <runtime> RETURNDATASIZE MSTORE MSIZE RETURNDATASIZE RETURN
	if out[0] != 0x7f {
		t.Fatalf("expected PUSH32 prefix, got %#x", out[0])
	}
	tail := out[1+32:]
	want := []byte{0x3d, 0x52, 0x59, 0x3d, 0xf3}
	if !bytes.Equal(tail, want) {
		t.Errorf("got % x, want % x", tail, want)
	}
}

func TestWrapDeploymentLarge(t *testing.T) {
	runtime := make([]byte, 40)
	out, err := WrapDeployment(runtime, Minimised)
	if err != nil {
		t.Fatal(err)
	}
	// PUSH1 40 DUP1 PUSH1 <start> RETURNDATASIZE CODECOPY RETURNDATASIZE RETURN <40 zero bytes>
	wantHead := []byte{0x60, 0x28, 0x80, 0x60, 0x09, 0x3d, 0x39, 0x3d, 0xf3}
	if !bytes.Equal(out[:len(wantHead)], wantHead) {
		t.Errorf("got head % x, want % x", out[:len(wantHead)], wantHead)
	}
	if len(out) != len(wantHead)+40 {
		t.Errorf("expected total length %d, got %d", len(wantHead)+40, len(out))
	}
}
