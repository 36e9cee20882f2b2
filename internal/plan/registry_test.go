package plan

import "testing"

func TestExecutorTableComplete(t *testing.T) {
	for op := Op(0); op < opCount; op++ {
		if executors[op] == nil {
			t.Errorf("op %s has no executor", op)
		}
		if opNames[op] == "" {
			t.Errorf("op %d has no wire name", int(op))
		}
	}
}

func TestParseOpRoundTrip(t *testing.T) {
	for op := Op(0); op < opCount; op++ {
		got, err := ParseOp(op.String())
		if err != nil {
			t.Fatalf("ParseOp(%q): %v", op.String(), err)
		}
		if got != op {
			t.Fatalf("ParseOp(%q) = %v, want %v", op.String(), got, op)
		}
	}
	if _, err := ParseOp("text.unknown"); err == nil {
		t.Fatal("ParseOp accepted an unknown name")
	}
}

func TestOpStringUnknown(t *testing.T) {
	if got := Op(200).String(); got != "op(200)" {
		t.Fatalf("String() = %q", got)
	}
}
