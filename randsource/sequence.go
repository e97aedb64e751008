package randsource

// Sequence replays a fixed list of values, cycling when exhausted.  It exists
// to make sampling decisions reproducible in tests.
type Sequence struct {
	Values []float64
	pos    int
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{Values: values}
}

func (s *Sequence) Float64() float64 {
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

func (s *Sequence) Range(min, max float64) float64 {
	return remap(s, min, max)
}
