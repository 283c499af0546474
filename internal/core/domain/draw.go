package domain

import (
	"crypto/sha256"
	"encoding/binary"
)

// MixEntropy combines the entropy sources of a draw (previous draw hash,
// current timestamp, randomness beacon) through a one-way hash. The output is
// the round's draw hash. Note this mix is only as strong as its inputs:
// whoever controls call ordering or the beacon can bias it.
func MixEntropy(prevHash []byte, timestamp int64, beacon []byte) []byte {
	h := sha256.New()
	h.Write(prevHash)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestamp))
	h.Write(ts[:])

	h.Write(beacon)
	return h.Sum(nil)
}

// WinningIndex reduces a draw hash to an entry index in [0, totalEntries).
func WinningIndex(drawHash []byte, totalEntries uint64) (uint64, error) {
	if totalEntries <= 0 {
		return 0, ErrNoEligibleEntries
	}
	return binary.BigEndian.Uint64(drawHash[:8]) % totalEntries, nil
}

// PickWinner walks the contributions in insertion order accumulating entry
// counts; the contributor whose cumulative range contains the index wins.
// Ranges are disjoint by construction so ties are impossible; a contributor
// holding several contributions simply owns several disjoint ranges.
func PickWinner(contributions []Contribution, index uint64) (string, error) {
	cumulative := uint64(0)
	for _, contribution := range contributions {
		cumulative += contribution.EntryCount
		if index < cumulative {
			return contribution.Contributor, nil
		}
	}
	return "", ErrNoEligibleEntries
}
