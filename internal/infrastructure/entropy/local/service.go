package localentropy

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/tombolabs/tombola/internal/core/ports"
)

// service is a local stand-in for the platform entropy source: the beacon is
// read from the OS entropy pool and the previous draw hash rolls forward with
// every draw. On a chain deployment the beacon would come from block-level
// randomness and the host timestamp, with the predictability caveats that
// entails.
type service struct {
	lock     sync.Mutex
	prevHash []byte
}

func NewEntropySource() ports.EntropySource {
	return &service{prevHash: make([]byte, 32)}
}

func (s *service) Sample(_ context.Context) (ports.Entropy, error) {
	beacon := make([]byte, 32)
	if _, err := rand.Read(beacon); err != nil {
		return ports.Entropy{}, fmt.Errorf("failed to read entropy beacon: %w", err)
	}

	s.lock.Lock()
	prevHash := append([]byte{}, s.prevHash...)
	s.lock.Unlock()

	return ports.Entropy{
		PrevHash:  prevHash,
		Timestamp: time.Now().Unix(),
		Beacon:    beacon,
	}, nil
}

func (s *service) Roll(drawHash []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.prevHash = append([]byte{}, drawHash...)
}
