package permissions

import "testing"

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation(" Read ")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if op != OpRead {
		t.Fatalf("op=%q", op)
	}
}

func TestParseOperation_Unknown(t *testing.T) {
	_, err := ParseOperation("approve")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsConfiguration(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestParseOperation_FullVocabulary(t *testing.T) {
	if len(AllOperations) != 14 {
		t.Fatalf("len=%d", len(AllOperations))
	}
	for _, op := range AllOperations {
		parsed, err := ParseOperation(string(op))
		if err != nil {
			t.Fatalf("%s: err=%v", op, err)
		}
		if parsed != op {
			t.Fatalf("parsed=%q", parsed)
		}
	}
}

func TestOperationSet(t *testing.T) {
	s := NewOperationSet(OpRead, OpWrite)
	if !s.Has(OpRead) || !s.Has(OpWrite) {
		t.Fatalf("set=%b", s)
	}
	if s.Has(OpDelete) {
		t.Fatalf("set=%b", s)
	}
	s = s.With(OpDelete)
	if !s.Has(OpDelete) {
		t.Fatalf("set=%b", s)
	}
	got := s.List()
	want := []Operation{OpRead, OpWrite, OpDelete}
	if len(got) != len(want) {
		t.Fatalf("got=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got=%v", got)
		}
	}
}

func TestOperationSet_Full(t *testing.T) {
	full := fullOperationSet()
	for _, op := range AllOperations {
		if !full.Has(op) {
			t.Fatalf("missing %s", op)
		}
	}
	if OperationSet(0).IsEmpty() != true || full.IsEmpty() {
		t.Fatal("IsEmpty")
	}
}
