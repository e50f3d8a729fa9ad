package game

import (
	"testing"
	"time"
)

func TestAwardBuckets(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 30},
		{300 * time.Second, 30},
		{301 * time.Second, 20},
		{600 * time.Second, 20},
		{601 * time.Second, 10},
		{2 * time.Hour, 10},
	}

	for _, tt := range tests {
		if got := Award(tt.elapsed); got != tt.want {
			t.Errorf("Award(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestAwardNegativeElapsedClampsToZero(t *testing.T) {
	if got := Award(-42 * time.Second); got != 30 {
		t.Errorf("Award(-42s) = %d, want 30 (clamped to zero elapsed)", got)
	}
}

func TestSkipPenaltyIsFlat(t *testing.T) {
	if SkipPenalty != 20 {
		t.Errorf("SkipPenalty = %d, want 20", SkipPenalty)
	}
}
