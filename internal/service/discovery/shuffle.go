package discovery

import (
	"math/rand"
	"sync"
	"time"
)

// Shuffler permutes n elements through swap.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// RandShuffler is a goroutine-safe Shuffler over math/rand.
type RandShuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandShuffler seeds the source with seed, or with the clock when seed is 0.
func NewRandShuffler(seed int64) *RandShuffler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandShuffler{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(n, swap)
}

type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

// NoShuffle keeps storage order.
var NoShuffle Shuffler = noShuffle{}
