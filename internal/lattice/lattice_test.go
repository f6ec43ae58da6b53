package lattice

import (
	"testing"
)

func TestIndexDeindexRoundTrip(t *testing.T) {
	cases := []struct{ size, dims int }{
		{2, 1},
		{4, 1},
		{3, 2},
		{5, 2},
		{3, 3},
	}

	for _, c := range cases {
		cfg := Config{Size: c.size, Dims: c.dims}
		n := cfg.Points()
		for i := 0; i < n; i++ {
			coord := Deindex(i, c.size, c.dims)
			if got := Index(coord, c.size); got != i {
				t.Errorf("size=%d dims=%d: Index(Deindex(%d)) = %d", c.size, c.dims, i, got)
			}
			for d, x := range coord {
				if x < 0 || x >= c.size {
					t.Errorf("size=%d dims=%d: Deindex(%d)[%d] = %d out of range", c.size, c.dims, i, d, x)
				}
			}
		}
	}
}

func TestDeindexRowMajor(t *testing.T) {
	// 3x3 lattice: flat 5 is row 1, column 2.
	coord := Deindex(5, 3, 2)
	if coord[0] != 1 || coord[1] != 2 {
		t.Errorf("Deindex(5, 3, 2) = %v, want [1 2]", coord)
	}
}

func TestDeindexOutOfRangePanics(t *testing.T) {
	for _, flat := range []int{-1, 9, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Deindex(%d, 3, 2) should panic", flat)
				}
			}()
			Deindex(flat, 3, 2)
		}()
	}
}

func TestStrides(t *testing.T) {
	cfg := Config{Size: 4, Dims: 3}
	strides := cfg.Strides()
	want := []int{16, 4, 1}
	for d := range want {
		if strides[d] != want[d] {
			t.Errorf("strides = %v, want %v", strides, want)
			break
		}
	}
}

func TestBoundarySize2D(t *testing.T) {
	for size := 2; size <= 8; size++ {
		cfg := Config{Size: size, Dims: 2}
		got := len(cfg.BoundaryIndices())
		want := 4*size - 4
		if got != want {
			t.Errorf("size=%d: boundary has %d points, want %d", size, got, want)
		}
	}
}

func TestBoundarySize1D(t *testing.T) {
	cfg := Config{Size: 6, Dims: 1}
	idx := cfg.BoundaryIndices()
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 5 {
		t.Errorf("1-D boundary = %v, want [0 5]", idx)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Size: 4, Dims: 2}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := (Config{Size: 1, Dims: 2}).Validate(); err == nil {
		t.Error("size=1 should be rejected")
	}
	if err := (Config{Size: 4, Dims: 0}).Validate(); err == nil {
		t.Error("dims=0 should be rejected")
	}
}

func TestObserveProjectsBoundary(t *testing.T) {
	cfg := Config{Size: 3, Dims: 2}
	st := NewState(cfg)
	for i := range st.Position {
		st.Position[i] = float64(i)
		st.Velocity[i] = -float64(i)
	}
	st.Time = 2.5

	indices := cfg.BoundaryIndices()
	obs := NewObservableState(cfg)
	st.Observe(obs, indices)

	if obs.Time != 2.5 {
		t.Errorf("observable time = %v, want 2.5", obs.Time)
	}
	for k, i := range indices {
		if obs.Position[k] != float64(i) || obs.Velocity[k] != -float64(i) {
			t.Errorf("boundary point %d: got (%v, %v), want (%v, %v)",
				k, obs.Position[k], obs.Velocity[k], float64(i), -float64(i))
		}
	}
}

func TestStateRopeLength(t *testing.T) {
	cfg := Config{Size: 3, Dims: 2}
	st := NewState(cfg)
	if got := st.Rope().Len(); got != 3*cfg.Points() {
		t.Errorf("state rope length = %d, want %d", got, 3*cfg.Points())
	}

	obs := NewObservableState(cfg)
	if got := obs.Rope().Len(); got != 2*(4*cfg.Size-4) {
		t.Errorf("observable rope length = %d, want %d", got, 2*(4*cfg.Size-4))
	}
}
