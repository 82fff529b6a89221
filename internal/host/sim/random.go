package sim

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
)

var ErrInvalidProb = errors.New("invalid probability p; must be 0..1")

// RandomSource drives the background events of the simulation.
type RandomSource interface {
	Float64() float64 // [0, 1)
}

// crypto random: default source
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func DefaultRNG() RandomSource { return cryptoRNG{} }

// replicable source for tests and --seed
type seededRNG struct{ r *rand.Rand }

func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

// roll reports whether an event of probability p happens.
// p == 0 never happens, p == 1 always happens; p outside [0, 1] is
// ErrInvalidProb.
func roll(p float64, rng RandomSource) (bool, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return false, ErrInvalidProb
	}
	if p == 0 {
		return false, nil
	}
	if p == 1 {
		return true, nil
	}
	return rng.Float64() < p, nil
}

// pick returns an index in [0, n).
func pick(n int, rng RandomSource) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
