package spsc

import (
	"sync"
	"testing"
)

func TestCellHandOff(t *testing.T) {
	var c Cell[int]
	put, take := c.Ends()

	if _, ok := take.Take(); ok {
		t.Fatal("Take() on empty cell succeeded")
	}
	if !put.Put(1) {
		t.Fatal("Put(1) on empty cell failed")
	}
	if put.Put(2) {
		t.Fatal("Put(2) on full cell succeeded")
	}
	if !c.Full() || !put.Full() {
		t.Fatal("cell not reported full")
	}
	v, ok := take.Take()
	if !ok || v != 1 {
		t.Fatalf("Take() = %d, %v, want 1, true", v, ok)
	}
	if c.Full() {
		t.Fatal("cell still full after Take()")
	}

	put.Put(3)
	c.Reset()
	if _, ok := take.Take(); ok {
		t.Fatal("Take() after Reset() succeeded")
	}
}

func TestRingOrderAndCapacity(t *testing.T) {
	r := NewRing[int](3)
	if r.Cap() != 4 {
		t.Fatalf("Cap() = %d, want 4", r.Cap())
	}
	for i := 0; i < 4; i++ {
		if !r.Push(i) {
			t.Fatalf("Push(%d) failed", i)
		}
	}
	if r.Push(99) {
		t.Fatal("Push on full ring succeeded")
	}
	if r.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", r.Len())
	}
	for i := 0; i < 4; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("Pop() = %d, %v, want %d, true", v, ok, i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("Pop on empty ring succeeded")
	}
}

func TestRingWrapsIndices(t *testing.T) {
	r := NewRing[int](2)
	for i := 0; i < 1000; i++ {
		if !r.Push(i) {
			t.Fatalf("Push(%d) failed", i)
		}
		if v, ok := r.Pop(); !ok || v != i {
			t.Fatalf("Pop() = %d, %v, want %d", v, ok, i)
		}
	}
	r.Push(1)
	r.Reset()
	if r.Len() != 0 {
		t.Fatalf("Len() after Reset() = %d", r.Len())
	}
}

func TestRingConcurrent(t *testing.T) {
	const n = 10000
	r := NewRing[int](16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if r.Push(i) {
				i++
			}
		}
	}()

	for want := 0; want < n; {
		v, ok := r.Pop()
		if !ok {
			continue
		}
		if v != want {
			t.Fatalf("Pop() = %d, want %d", v, want)
		}
		want++
	}
	wg.Wait()
}
