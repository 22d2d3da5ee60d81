package pcm

import (
	"math"
	"sync/atomic"
)

// Gain is a linear volume factor that can be changed while audio is being
// rendered. The zero value is silence; use NewGain(1) for unity.
type Gain struct {
	bits atomic.Uint32
}

// NewGain returns a Gain initialized to v.
func NewGain(v float32) *Gain {
	g := &Gain{}
	g.Store(v)
	return g
}

// Load returns the current factor.
func (g *Gain) Load() float32 {
	return math.Float32frombits(g.bits.Load())
}

// Store replaces the factor. Negative values are stored as 0.
func (g *Gain) Store(v float32) {
	if v < 0 || math.IsNaN(float64(v)) {
		v = 0
	}
	g.bits.Store(math.Float32bits(v))
}
