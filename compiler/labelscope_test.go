package compiler

import "testing"

func TestLabelScopeLookupAndScoping(t *testing.T) {
	s := NewLabelScope()
	s.EnterContext()
	s.Push("a", 1)
	if m, ok := s.Lookup("a"); !ok || m != 1 {
		t.Fatalf("Lookup(a) = %d, %v", m, ok)
	}

	s.EnterContext()
	s.Push("b", 2)
	if m, ok := s.Lookup("a"); !ok || m != 1 {
		t.Errorf("inner scope should still see outer label a, got %d, %v", m, ok)
	}
	if _, ok := s.Lookup("c"); ok {
		t.Error("Lookup(c) should fail, c was never pushed")
	}

	current := s.CurrentContext()
	if len(current) != 1 || current[0].Name != "b" {
		t.Errorf("CurrentContext should contain only b, got %v", current)
	}

	s.LeaveContext()
	if _, ok := s.Lookup("b"); ok {
		t.Error("b should no longer be visible after LeaveContext")
	}
	if m, ok := s.Lookup("a"); !ok || m != 1 {
		t.Errorf("a should remain visible, got %d, %v", m, ok)
	}
}

func TestLabelScopeShadowing(t *testing.T) {
	s := NewLabelScope()
	s.EnterContext()
	s.Push("a", 1)
	s.Push("a", 2)
	m, ok := s.Lookup("a")
	if !ok || m != 2 {
		t.Errorf("Lookup should return the most recent binding, got %d, %v", m, ok)
	}
}
