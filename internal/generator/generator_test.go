package generator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroBeforeFirstCommit(t *testing.T) {
	g := NewSignal(4)
	assert.Equal(t, []float64{0, 0, 0, 0}, g.ControlSignal(0))
}

func TestCommitAndRead(t *testing.T) {
	g := NewSignal(3)
	err := g.SetParameters(context.Background(), []float64{1, 2, 3}, 0.5)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, g.ControlSignal(0.6))
	assert.Equal(t, 0.5, g.SetAt())
}

func TestSizeMismatchRejected(t *testing.T) {
	g := NewSignal(3)
	err := g.SetParameters(context.Background(), []float64{1}, 0)
	assert.Error(t, err)
}

func TestSignalIsACopy(t *testing.T) {
	g := NewSignal(2)
	_ = g.SetParameters(context.Background(), []float64{1, 1}, 0)
	s := g.ControlSignal(0)
	s[0] = 99
	assert.Equal(t, []float64{1, 1}, g.ControlSignal(0))
}

func TestConcurrentReadWrite(t *testing.T) {
	g := NewSignal(8)
	params := make([]float64, 8)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = g.SetParameters(context.Background(), params, float64(i))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = g.ControlSignal(float64(i))
			}
		}()
	}
	wg.Wait()
}
