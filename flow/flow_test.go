package flow_test

import (
	"testing"

	"github.com/xperrylinn/jobflow/flow"
	"github.com/xperrylinn/jobflow/ref"
)

type stubRunner struct {
	uuid  string
	index int
}

func (s stubRunner) GetUUID() string { return s.uuid }
func (s stubRunner) GetIndex() int   { return s.index }

func TestFlowAppendPreservesOrderWithoutMutatingOriginal(t *testing.T) {
	base := flow.New(stubRunner{uuid: "a", index: 1})
	extended := base.Append(stubRunner{uuid: "b", index: 1})

	if base.Len() != 1 {
		t.Fatalf("expected original flow untouched, got len %d", base.Len())
	}
	if extended.Len() != 2 {
		t.Fatalf("expected extended flow to have 2 members, got %d", extended.Len())
	}
	if extended.Jobs()[1].GetUUID() != "b" {
		t.Fatalf("expected appended runner to be last")
	}
}

func TestFlowOutputDesignation(t *testing.T) {
	f := flow.New()
	if _, ok := f.Output(); ok {
		t.Fatalf("expected no designated output by default")
	}

	withOutput := f.WithOutput(ref.New("u1"))
	out, ok := withOutput.Output()
	if !ok {
		t.Fatalf("expected designated output after WithOutput")
	}
	if out.UUID() != "u1" {
		t.Fatalf("unexpected output uuid %q", out.UUID())
	}
}
