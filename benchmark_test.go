package thunk_test

import (
	"context"
	"testing"

	"github.com/go-thunk/thunk"
	gojaop "github.com/go-thunk/thunk/ops/goja"
)

// A simple CPU-intensive script for benchmarking. The Fibonacci function
// is a good candidate as it's pure computation.
const benchmarkJsOperation = `(n) => {
	function fib(k) {
		if (k < 2) {
			return k;
		}
		return fib(k - 1) + fib(k - 2);
	}
	return fib(n);
}`

// BenchmarkTask_Lifecycle measures the per-invocation engine overhead with
// a trivial operation and no sink.
func BenchmarkTask_Lifecycle(b *testing.B) {
	task, err := thunk.New("bench/noop", func(ctx context.Context, req *thunk.Request) (interface{}, error) {
		return nil, nil
	})
	if err != nil {
		b.Fatalf("Failed to create task: %v", err)
	}

	b.ResetTimer() // Start timing after setup

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			h := task.Start(context.Background(), thunk.Env{}, nil)
			if _, err := h.Wait(context.Background()); err != nil {
				b.Errorf("Wait failed: %v", err)
			}
		}
	})
}

// BenchmarkTask_GojaOperation measures a full lifecycle through the
// JavaScript operation adapter. Invocations serialize on the runner's
// event loop, so this runs sequentially.
func BenchmarkTask_GojaOperation(b *testing.B) {
	runner, err := gojaop.New(benchmarkJsOperation)
	if err != nil {
		b.Fatalf("Failed to create runner: %v", err)
	}
	defer runner.Close()

	task, err := thunk.New("bench/fib", runner.Operation())
	if err != nil {
		b.Fatalf("Failed to create task: %v", err)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		h := task.Start(context.Background(), thunk.Env{}, 15)
		final, err := h.Wait(context.Background())
		if err != nil {
			b.Fatalf("Wait failed: %v", err)
		}
		if final.Type != "bench/fib/succeeded" {
			b.Fatalf("Unexpected settlement: %+v", final)
		}
	}
}
