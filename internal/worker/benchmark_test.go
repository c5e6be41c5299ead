package worker

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkPool_Throughput(b *testing.B) {
	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			pool := newTestPool(b, workers, 1024)
			pool.Start(context.Background())

			done := make(chan struct{})
			go func() {
				for range pool.Results() { //nolint:revive // drain
				}
				close(done)
			}()

			task := &funcTask{name: "noop"}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for pool.Submit(task) != nil {
				}
			}
			pool.Shutdown()
			<-done
		})
	}
}

func BenchmarkPool_SubmitBatch(b *testing.B) {
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = &funcTask{name: fmt.Sprintf("t%d", i)}
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		pool := newTestPool(b, 4, len(tasks))
		pool.Start(context.Background())
		if err := pool.SubmitBatch(tasks); err != nil {
			b.Fatal(err)
		}
		for range tasks {
			<-pool.Results()
		}
		pool.Shutdown()
	}
}
