package parallel

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

func TestWorkers(t *testing.T) {
	tests := []struct {
		nJobs, items, want int
	}{
		{nJobs: 4, items: 100, want: 4},
		{nJobs: 8, items: 3, want: 3},
		{nJobs: 1, items: 0, want: 1},
		{nJobs: -1, items: 1 << 20, want: runtime.NumCPU()},
	}
	for _, tt := range tests {
		if got := Workers(tt.nJobs, tt.items); got != tt.want {
			t.Errorf("Workers(%d, %d) = %d, want %d", tt.nJobs, tt.items, got, tt.want)
		}
	}
}

func TestParallelize_CoversAllItems(t *testing.T) {
	const items = 1037
	seen := make([]int32, items)

	Parallelize(items, 4, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})

	for i, n := range seen {
		if n != 1 {
			t.Fatalf("item %d visited %d times", i, n)
		}
	}
}

func TestForEach(t *testing.T) {
	out := make([]int, 50)
	err := ForEach(len(out), 3, "square", func(i int) error {
		out[i] = i * i
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != i*i {
			t.Fatalf("out[%d] = %d", i, v)
		}
	}
}

func TestForEach_ReturnsLowestIndexError(t *testing.T) {
	err := ForEach(20, 4, "fit", func(i int) error {
		if i == 7 || i == 15 {
			return fmt.Errorf("tree %d failed", i)
		}
		return nil
	})
	if err == nil || err.Error() != "tree 7 failed" {
		t.Errorf("err = %v, want tree 7 failed", err)
	}
}

func TestForEach_RecoversPanic(t *testing.T) {
	err := ForEach(5, 2, "fitTree", func(i int) error {
		if i == 2 {
			panic("boom")
		}
		return nil
	})
	var panicErr *errors.PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if panicErr.Operation != "fitTree" {
		t.Errorf("Operation = %q", panicErr.Operation)
	}
}
