package game

import "testing"

func TestTankStateAdvance(t *testing.T) {
	s := NewTankState(800, 600, 1)
	s.Advance(0.25)
	s.Advance(0.25)
	if s.Time != 0.5 || s.Frame != 2 {
		t.Errorf("expected time 0.5 frame 2, got %v %d", s.Time, s.Frame)
	}
}

func TestTankStateRandRange(t *testing.T) {
	s := NewTankState(800, 600, 42)
	for i := 0; i < 100; i++ {
		if v := s.RandRange(2, 5); v < 2 || v >= 5 {
			t.Fatalf("value %v out of range", v)
		}
	}
	if v := s.RandRange(3, 3); v != 3 {
		t.Errorf("empty range should return min, got %v", v)
	}
}
