package simulator

import (
	"fmt"
	"math/rand"
	"time"
)

// PatientSimulator generates single-timepoint patient records: one
// demographics block, one lab panel, one treatment response, and zero or
// more adverse events per patient. All randomness flows through the
// injected source so runs are reproducible under a fixed seed.
type PatientSimulator struct {
	vocab Vocabulary
	rng   *rand.Rand
	now   func() time.Time
}

// NewPatientSimulator builds a simulator over the given vocabulary.
// A zero seed selects a clock-based seed.
func NewPatientSimulator(vocab Vocabulary, seed int64) *PatientSimulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PatientSimulator{
		vocab: vocab,
		rng:   rand.New(rand.NewSource(seed)),
		now:   time.Now,
	}
}

// Vocab exposes the vocabulary the simulator draws from.
func (s *PatientSimulator) Vocab() Vocabulary {
	return s.vocab
}

func (s *PatientSimulator) uniform(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}

// uniformInt returns an integer in [min, max] inclusive.
func (s *PatientSimulator) uniformInt(min, max int) int {
	return min + s.rng.Intn(max-min+1)
}

func (s *PatientSimulator) choice(items []string) string {
	return items[s.rng.Intn(len(items))]
}

// sample draws n distinct items without replacement.
func (s *PatientSimulator) sample(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	picked := make([]string, len(items))
	copy(picked, items)
	s.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:n]
}

// pastDate returns a random day within the past maxDays days, date only.
func (s *PatientSimulator) pastDate(maxDays int) string {
	offset := s.rng.Intn(maxDays + 1)
	return s.now().AddDate(0, 0, -offset).Format("2006-01-02")
}

func (s *PatientSimulator) newPatientID() string {
	return fmt.Sprintf("PT%08X", s.rng.Uint32())
}
