package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler passes the first pass events out of every of, then cycles. A
// zero ratio disables sampling so every event passes.
type ratioSampler struct {
	mu   sync.Mutex
	pass int
	of   int
	seen int
}

func newRatioSampler(pass, of int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(pass, of)
	return s
}

// Set replaces the sampling ratio and restarts the window.
func (s *ratioSampler) Set(pass, of int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pass <= 0 || of <= 0 {
		s.pass, s.of, s.seen = 0, 0, 0
		return
	}
	if pass > of {
		pass = of
	}
	s.pass, s.of, s.seen = pass, of, 0
}

// Allow reports whether the next event falls inside the sampled share of the
// current window.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.of <= 0 {
		return true
	}
	s.seen++
	if s.seen > s.of {
		s.seen = 1
	}
	return s.seen <= s.pass
}

// parseRatioSpec understands "N/M" (pass N out of every M) and a plain "M"
// shorthand for 1/M. Anything else disables sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if num, den, found := strings.Cut(spec, "/"); found {
		n, errN := strconv.Atoi(strings.TrimSpace(num))
		d, errD := strconv.Atoi(strings.TrimSpace(den))
		if errN != nil || errD != nil {
			return 0, 0
		}
		return n, d
	}
	if v, err := strconv.Atoi(spec); err == nil && v > 0 {
		return 1, v
	}
	return 0, 0
}
