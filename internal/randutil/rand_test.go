package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestForGameIndependentStreams(t *testing.T) {
	assert.Equal(t, Cuts(ForGame(7, 3), 5), Cuts(ForGame(7, 3), 5))
	assert.NotEqual(t, Cuts(ForGame(7, 3), 8), Cuts(ForGame(7, 4), 8))
	assert.NotEqual(t, Cuts(ForGame(7, 3), 8), Cuts(ForGame(8, 3), 8))
}

func TestCutsInRange(t *testing.T) {
	for _, cut := range Cuts(New(1), 5000) {
		if cut < 1 || cut > 51 {
			t.Fatalf("cut %d out of range", cut)
		}
	}
}
