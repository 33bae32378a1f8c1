package retry

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

type jitterKind uint8

const (
	jitterNone jitterKind = iota
	jitterFull
)

// Jitter selects how a backoff ceiling becomes an actual delay. The zero
// value applies no jitter.
type Jitter struct {
	kind   jitterKind
	seed   uint64
	seeded bool
}

// NoJitter waits exactly the backoff ceiling.
func NoJitter() Jitter { return Jitter{} }

// FullJitter draws uniformly from [0, ceiling] using the process random
// source.
func FullJitter() Jitter { return Jitter{kind: jitterFull} }

// SeededFullJitter draws uniformly from [0, ceiling] deterministically: the
// same seed, attempt and ceiling always give the same delay.
func SeededFullJitter(seed uint64) Jitter {
	return Jitter{kind: jitterFull, seed: seed, seeded: true}
}

// IsFull reports whether j randomizes delays.
func (j Jitter) IsFull() bool { return j.kind == jitterFull }

// Seed returns the seed and whether j is seeded.
func (j Jitter) Seed() (uint64, bool) { return j.seed, j.seeded }

func (j Jitter) apply(attempt int, ceiling time.Duration) time.Duration {
	if j.kind != jitterFull || ceiling <= 0 {
		return ceiling
	}

	n := uint64(ceiling) + 1 // inclusive upper bound
	if j.seeded {
		r := rand.New(rand.NewPCG(j.seed, uint64(max(attempt, 0))))
		return time.Duration(r.Uint64N(n))
	}
	return time.Duration(rand.Uint64N(n))
}

// String renders j in the form accepted by ParseJitter.
func (j Jitter) String() string {
	switch {
	case j.kind == jitterNone:
		return "none"
	case j.seeded:
		return "full:" + strconv.FormatUint(j.seed, 10)
	default:
		return "full"
	}
}

// ParseJitter parses "none", "full" or "full:<seed>".
func ParseJitter(s string) (Jitter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none":
		return NoJitter(), nil
	case "full":
		return FullJitter(), nil
	}

	if rest, ok := strings.CutPrefix(s, "full:"); ok {
		seed, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Jitter{}, fmt.Errorf("%w: jitter seed %q", ErrInvalidConfiguration, rest)
		}
		return SeededFullJitter(seed), nil
	}

	return Jitter{}, fmt.Errorf("%w: unknown jitter %q", ErrInvalidConfiguration, s)
}
