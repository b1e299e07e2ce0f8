package pipeline_test

import (
	"testing"

	"github.com/vixgo/conduit/pipeline"
)

func TestNext_FiresExactlyOnce(t *testing.T) {
	count := 0
	next := pipeline.NewNext(func() { count++ })

	for i := 0; i < 5; i++ {
		next.Call()
	}

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestNext_TryCallReportsFirstInvocation(t *testing.T) {
	next := pipeline.NewNext(func() {})

	if !next.TryCall() {
		t.Error("first TryCall should return true")
	}
	for i := 0; i < 3; i++ {
		if next.TryCall() {
			t.Error("subsequent TryCall should return false")
		}
	}
}

func TestNext_Called(t *testing.T) {
	next := pipeline.NewNext(func() {})

	if next.Called() {
		t.Error("Called should be false before the first invocation")
	}

	next.Call()

	if !next.Called() {
		t.Error("Called should be true after the first invocation")
	}
}

func TestNext_NilFunction(t *testing.T) {
	next := pipeline.NewNext(nil)

	if !next.TryCall() {
		t.Error("first TryCall should report firing even with a nil fn")
	}
	if !next.Called() {
		t.Error("Called should be true")
	}
}
