package engine

import (
	"sync/atomic"
	"testing"
)

func TestPoolCoversIndexSpace(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	for _, n := range []int{0, 1, 3, 4, 5, 97, 1000} {
		hits := make([]int32, n)
		pool.Run(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestPoolSmallerThanWorkers(t *testing.T) {
	pool := NewPool(8)
	defer pool.Close()

	var total int64
	pool.Run(3, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})
	if total != 3 {
		t.Errorf("covered %d indices, want 3", total)
	}
}

func TestPoolReusable(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	for round := 0; round < 50; round++ {
		var total int64
		pool.Run(100, func(start, end int) {
			atomic.AddInt64(&total, int64(end-start))
		})
		if total != 100 {
			t.Fatalf("round %d: covered %d indices", round, total)
		}
	}
}
