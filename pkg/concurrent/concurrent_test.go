package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestForEachRunsAll(t *testing.T) {
	var n int64
	err := ForEach(context.Background(), []int{1, 2, 3, 4}, func(_ context.Context, v int) error {
		atomic.AddInt64(&n, int64(v))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	if n != 10 {
		t.Errorf("sum = %d, want 10", n)
	}
}

func TestForEachReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), []int{1, 2, 3}, func(_ context.Context, v int) error {
		if v == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestMapPreservesOrder(t *testing.T) {
	out, err := Map(context.Background(), []int{3, 1, 4, 1, 5}, 2, func(_ context.Context, v int) (int, error) {
		return v * 10, nil
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	want := []int{30, 10, 40, 10, 50}
	for i, v := range out {
		if v != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestMapError(t *testing.T) {
	boom := errors.New("boom")
	out, err := Map(context.Background(), []int{1, 2}, 0, func(_ context.Context, v int) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if out != nil {
		t.Errorf("out = %v, want nil", out)
	}
}

func TestCollect(t *testing.T) {
	a := make(chan int, 2)
	b := make(chan int, 2)
	a <- 1
	a <- 2
	b <- 3
	close(a)
	close(b)

	sum := 0
	for v := range Collect[int](a, b) {
		sum += v
	}
	if sum != 6 {
		t.Errorf("sum = %d, want 6", sum)
	}
}
