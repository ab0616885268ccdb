package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Both participant orders must resolve to the same (user_a, user_b) row, so
// opening a chat from either side is idempotent.
func TestNormalizePairOrderIndependent(t *testing.T) {
	cases := []struct {
		name  string
		a, b  int
		wantA int
		wantB int
	}{
		{name: "already sorted", a: 1, b: 2, wantA: 1, wantB: 2},
		{name: "swapped", a: 2, b: 1, wantA: 1, wantB: 2},
		{name: "large gap reversed", a: 900, b: 3, wantA: 3, wantB: 900},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotA, gotB := normalizePair(tc.a, tc.b)
			assert.Equal(t, tc.wantA, gotA)
			assert.Equal(t, tc.wantB, gotB)

			// swapping the inputs yields the identical pair
			swapA, swapB := normalizePair(tc.b, tc.a)
			assert.Equal(t, gotA, swapA)
			assert.Equal(t, gotB, swapB)
		})
	}
}
