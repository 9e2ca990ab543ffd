package utils

import (
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------

func TestTickBufferAppendBelowCapacity(t *testing.T) {
	tb := NewTickBuffer(5)

	tb.Append(Tick{Label: "t1", Price: 100})
	tb.Append(Tick{Label: "t2", Price: 101})

	if tb.Size() != 2 || tb.IsFull() {
		t.Fatalf("unexpected size/full: %d/%v", tb.Size(), tb.IsFull())
	}

	all := tb.All()
	if len(all) != 2 || all[0].Label != "t1" || all[1].Label != "t2" {
		t.Errorf("unexpected contents: %v", all)
	}
}

// -----------------------------------------------------------------------------

func TestTickBufferWraparound(t *testing.T) {
	tb := NewTickBuffer(3)

	for i := 1; i <= 5; i++ {
		tb.Append(Tick{Label: fmt.Sprintf("t%d", i), Price: float64(100 + i)})
	}

	if !tb.IsFull() || tb.Size() != 3 {
		t.Fatalf("expected full buffer of 3, got %d", tb.Size())
	}

	// Oldest two overwritten; order stays oldest to newest
	all := tb.All()
	want := []string{"t3", "t4", "t5"}
	for i, label := range want {
		if all[i].Label != label {
			t.Fatalf("expected %v, got %v", want, all)
		}
	}
}

// -----------------------------------------------------------------------------

func TestTickBufferClear(t *testing.T) {
	tb := NewTickBuffer(3)
	tb.Append(Tick{Label: "t1", Price: 100})
	tb.Clear()

	if tb.Size() != 0 || len(tb.All()) != 0 {
		t.Errorf("clear left %d ticks", tb.Size())
	}

	// Reusable after clear
	tb.Append(Tick{Label: "t2", Price: 101})
	if all := tb.All(); len(all) != 1 || all[0].Label != "t2" {
		t.Errorf("unexpected contents after clear: %v", all)
	}
}

// -----------------------------------------------------------------------------

func TestTickBufferDefaultCapacity(t *testing.T) {
	if got := NewTickBuffer(0).Capacity(); got != 1000 {
		t.Errorf("expected fallback capacity 1000, got %d", got)
	}
}
