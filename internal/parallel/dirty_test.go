package parallel

import (
	"sync"
	"testing"
)

// =============================================================================
// Creation Tests
// =============================================================================

func TestNewDirtyRegion(t *testing.T) {
	d := NewDirtyRegion(4, 3)
	if d == nil {
		t.Fatal("NewDirtyRegion(4, 3) = nil")
	}
	if d.TilesX() != 4 || d.TilesY() != 3 {
		t.Errorf("dims = (%d, %d), want (4, 3)", d.TilesX(), d.TilesY())
	}
	if !d.IsEmpty() {
		t.Error("new region should start clean")
	}
}

func TestNewDirtyRegion_Invalid(t *testing.T) {
	for _, dims := range [][2]int{{0, 5}, {5, 0}, {-1, 5}, {5, -1}} {
		if d := NewDirtyRegion(dims[0], dims[1]); d != nil {
			t.Errorf("NewDirtyRegion(%d, %d) = %v, want nil", dims[0], dims[1], d)
		}
	}
}

// =============================================================================
// Mark Tests
// =============================================================================

func TestDirtyRegion_Mark(t *testing.T) {
	d := NewDirtyRegion(8, 8)

	d.Mark(3, 5)

	if !d.IsDirty(3, 5) {
		t.Error("IsDirty(3, 5) = false after Mark(3, 5)")
	}
	if d.IsDirty(5, 3) {
		t.Error("IsDirty(5, 3) = true, only (3, 5) was marked")
	}
	if got := d.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestDirtyRegion_MarkOutOfBounds(t *testing.T) {
	d := NewDirtyRegion(4, 4)

	d.Mark(-1, 0)
	d.Mark(0, -1)
	d.Mark(4, 0)
	d.Mark(0, 4)

	if !d.IsEmpty() {
		t.Error("out-of-bounds marks should be ignored")
	}
	if d.IsDirty(-1, 0) || d.IsDirty(4, 4) {
		t.Error("IsDirty out of bounds should report false")
	}
}

func TestDirtyRegion_MarkRect(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		wantCount  int
	}{
		{"inside one tile", 10, 10, 20, 20, 1},
		{"spans two columns", 60, 0, 10, 10, 2},
		{"spans four tiles", 60, 60, 10, 10, 4},
		{"exact tile", 64, 64, 64, 64, 1},
		{"empty", 10, 10, 0, 5, 0},
		{"fully outside", 1000, 1000, 10, 10, 0},
		{"negative origin clipped", -10, -10, 20, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirtyRegion(4, 4)
			d.MarkRect(tt.x, tt.y, tt.w, tt.h)
			if got := d.Count(); got != tt.wantCount {
				t.Errorf("MarkRect(%d, %d, %d, %d): Count() = %d, want %d",
					tt.x, tt.y, tt.w, tt.h, got, tt.wantCount)
			}
		})
	}
}

func TestDirtyRegion_MarkAll(t *testing.T) {
	// 9x9 = 81 tiles crosses a word boundary, exercising the partial word.
	d := NewDirtyRegion(9, 9)
	d.MarkAll()

	if got := d.Count(); got != 81 {
		t.Errorf("Count() after MarkAll = %d, want 81", got)
	}
	if d.IsEmpty() {
		t.Error("IsEmpty() = true after MarkAll")
	}

	d.Clear()
	if !d.IsEmpty() {
		t.Error("IsEmpty() = false after Clear")
	}
}

// =============================================================================
// GetAndClear Tests
// =============================================================================

func TestDirtyRegion_GetAndClear(t *testing.T) {
	d := NewDirtyRegion(10, 10)
	d.Mark(0, 0)
	d.Mark(9, 9)
	d.Mark(3, 7)

	coords := d.GetAndClear()

	if len(coords) != 3 {
		t.Fatalf("GetAndClear returned %d tiles, want 3", len(coords))
	}
	seen := make(map[[2]int]bool)
	for _, c := range coords {
		seen[c] = true
	}
	for _, want := range [][2]int{{0, 0}, {9, 9}, {3, 7}} {
		if !seen[want] {
			t.Errorf("GetAndClear missing tile %v", want)
		}
	}

	if !d.IsEmpty() {
		t.Error("region should be clean after GetAndClear")
	}
	if again := d.GetAndClear(); len(again) != 0 {
		t.Errorf("second GetAndClear returned %d tiles, want 0", len(again))
	}
}

func TestDirtyRegion_GetAndClearAll(t *testing.T) {
	d := NewDirtyRegion(11, 7)
	d.MarkAll()

	coords := d.GetAndClear()
	if len(coords) != 77 {
		t.Errorf("GetAndClear after MarkAll returned %d tiles, want 77", len(coords))
	}
	for _, c := range coords {
		if c[0] < 0 || c[0] >= 11 || c[1] < 0 || c[1] >= 7 {
			t.Errorf("tile %v outside the 11x7 grid", c)
		}
	}
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestDirtyRegion_ConcurrentMark(t *testing.T) {
	d := NewDirtyRegion(16, 16)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				d.Mark(i%16, g*2%16)
				d.MarkRect(i%64, i%64, 32, 32)
			}
		}(g)
	}
	wg.Wait()

	if d.IsEmpty() {
		t.Error("region empty after concurrent marking")
	}
}

func TestDirtyRegion_ConcurrentMarkAndCollect(t *testing.T) {
	d := NewDirtyRegion(16, 16)

	const marks = 5000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < marks; i++ {
			d.Mark(i%16, (i/16)%16)
		}
	}()

	collected := 0
	for i := 0; i < 100; i++ {
		collected += len(d.GetAndClear())
	}
	wg.Wait()
	collected += len(d.GetAndClear())

	// Every mark must be observed by exactly one collection; with 256 tiles
	// the exact total varies but never exceeds what was marked.
	if collected == 0 {
		t.Error("no marks observed across collections")
	}
	if collected > marks {
		t.Errorf("collected %d marks, more than the %d made", collected, marks)
	}
}
