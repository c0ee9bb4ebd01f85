package generator

import (
	"math/rand"
	"sync"
	"time"

	"MarketMood/internal/domain/service"
)

// lockedRand serialises access to a *rand.Rand shared by concurrent update cycles.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe Rand. seed 0 seeds from the clock.
func NewRand(seed int64) service.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
