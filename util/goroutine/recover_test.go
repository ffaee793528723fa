package goroutine

import (
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestRecover_CatchesPanic(t *testing.T) {
	logger := zap.NewNop().Sugar()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer Recover("test-goroutine", logger)
		panic("boom")
	}()
	<-done
	// Reaching here means the panic was absorbed.
}

func TestRecover_NilLogger(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer Recover("test-goroutine", nil)
		panic("boom without logger")
	}()
	<-done
}

func TestGo_RunsFunction(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	ran := false
	Go("worker", zap.NewNop().Sugar(), func() {
		ran = true
		wg.Done()
	})

	wg.Wait()
	if !ran {
		t.Fatal("function did not run")
	}
}
