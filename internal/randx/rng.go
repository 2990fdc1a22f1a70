// Package randx provides the seeded random streams the simulation draws
// from. Every run owns exactly one Stream; reproducibility of a run is a
// pure function of its seed, so streams carry no global or locked state.
package randx

import "math"

// golden is the splitmix64 increment (2^64 / phi).
const golden = 0x9e3779b97f4a7c15

// Stream is a deterministic pseudo-random source based on splitmix64.
// It is not safe for concurrent use; each run holds its own Stream.
type Stream struct {
	state uint64

	// cached second output of the polar normal transform
	spare    float64
	hasSpare bool
}

// New returns a Stream seeded with the given value. Equal seeds produce
// identical draw sequences.
func New(seed uint64) *Stream {
	return &Stream{state: seed}
}

// DerivedSeed mixes a base seed with a run index into the seed for that
// run's stream. Distinct indexes yield unrelated sequences while staying
// reproducible from (base, run).
func DerivedSeed(base uint64, run int) uint64 {
	return base ^ (uint64(run)+1)*golden
}

// Derived returns an independent Stream for the given run index.
func Derived(base uint64, run int) *Stream {
	return New(DerivedSeed(base, run))
}

// Uint64 returns the next raw 64-bit output.
func (s *Stream) Uint64() uint64 {
	s.state += golden
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Float64 returns a uniform draw in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Range returns a uniform draw in [lo, hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*s.Float64()
}

// Bool returns true with probability p.
func (s *Stream) Bool(p float64) bool {
	return s.Float64() < p
}

// Norm returns a normal draw with the given mean and standard deviation,
// using the Marsaglia polar method. The transform produces two variates per
// rejection loop; the second is cached for the next call.
func (s *Stream) Norm(mu, sigma float64) float64 {
	if s.hasSpare {
		s.hasSpare = false
		return mu + sigma*s.spare
	}
	for {
		u := 2*s.Float64() - 1
		v := 2*s.Float64() - 1
		q := u*u + v*v
		if q == 0 || q >= 1 {
			continue
		}
		f := math.Sqrt(-2 * math.Log(q) / q)
		s.spare = v * f
		s.hasSpare = true
		return mu + sigma*u*f
	}
}

// Beta returns a draw from the Beta(alpha, beta) distribution, built from
// two gamma variates. Both shape parameters must be positive; the config
// layer validates this before any stream is constructed.
func (s *Stream) Beta(alpha, beta float64) float64 {
	x := s.gamma(alpha)
	y := s.gamma(beta)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

// gamma returns a draw from Gamma(shape, 1) via Marsaglia-Tsang squeeze
// sampling. Shapes below 1 are boosted and corrected by the standard
// power-of-uniform identity.
func (s *Stream) gamma(shape float64) float64 {
	if shape < 1 {
		u := s.Float64()
		for u == 0 {
			u = s.Float64()
		}
		return s.gamma(shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := s.Norm(0, 1)
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := s.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
