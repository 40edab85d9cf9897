package dice

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// float53 is 2^53, the number of distinct float64 values drawn by cryptoSource.
var float53 = big.NewInt(1 << 53)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: values are uniformly distributed in [0, 1) and not reproducible.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Float64 is in [0, 1).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Float64 returns a cryptographically secure random value in [0, 1).
//
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Float64() float64 {
	val, err := rand.Int(rand.Reader, float53)
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return float64(val.Int64()) / (1 << 53)
}

// SeededSource is a deterministic Mulberry32 generator. Two SeededSources
// created with the same seed yield identical sequences.
type SeededSource struct {
	mu    sync.Mutex
	state uint32
}

// NewSeededSource returns a Mulberry32 Source starting from seed.
func NewSeededSource(seed uint32) *SeededSource {
	return &SeededSource{state: seed}
}

// Float64 advances the generator and returns the next value in [0, 1).
// All arithmetic is unsigned 32-bit and wraps on overflow.
func (s *SeededSource) Float64() float64 {
	s.mu.Lock()
	s.state += 0x6D2B79F5
	t := s.state
	s.mu.Unlock()

	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296
}

// State returns the generator's internal state so a caller can persist it and
// resume the sequence later with NewSeededSource(state).
func (s *SeededSource) State() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
