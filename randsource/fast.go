package randsource

// RandMax is the largest value produced by the fast generator's integer step.
const RandMax = 32767

// Fast is a narrow-range linear congruential generator with the same
// recurrence and output range as the classic C library rand().
//
// Its period is short and its granularity coarse (1/32768), which is adequate
// for jittering samples.  Streams are fully determined by the seed.
type Fast struct {
	next uint32
}

// NewFast returns a generator seeded like srand(seed).  An unseeded C rand()
// behaves like seed 1.
func NewFast(seed uint32) *Fast {
	return &Fast{next: seed}
}

// Intn returns the next integer in [0, RandMax].
func (f *Fast) Intn() int {
	f.next = f.next*1103515245 + 12345
	return int((f.next / 65536) % (RandMax + 1))
}

func (f *Fast) Float64() float64 {
	return float64(f.Intn()) / (RandMax + 1.0)
}

func (f *Fast) Range(min, max float64) float64 {
	return remap(f, min, max)
}
