package nats_test

import (
	"testing"
	"time"

	"github.com/xperrylinn/jobflow/notify/nats"
	"github.com/xperrylinn/jobflow/response"
)

func TestDefaultSubjectNamespacesByJobName(t *testing.T) {
	p := nats.New()
	if got, want := p.Subject("add"), "jobflow.completions.add"; got != want {
		t.Fatalf("subject = %q, want %q", got, want)
	}
}

func TestSubjectPrefixOption(t *testing.T) {
	p := nats.New(nats.SubjectPrefix("flows.done."))
	if got, want := p.Subject("add"), "flows.done.add"; got != want {
		t.Fatalf("subject = %q, want %q", got, want)
	}
}

func TestFromResponseCarriesStopFlow(t *testing.T) {
	resp := response.New("ok", response.WithStopFlow())
	c := nats.FromResponse("u-1", "add", 1, time.Now(), resp)
	if !c.StopFlow {
		t.Fatalf("expected StopFlow to propagate from the Response")
	}
	if c.UUID != "u-1" || c.Name != "add" || c.Index != 1 {
		t.Fatalf("unexpected completion: %+v", c)
	}
}
