package chainclock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"
)

// IntervalClock derives a logical block height from wall time: one block
// per fixed interval since genesis. The height is monotonically
// non-decreasing as long as wall time is.
type IntervalClock struct {
	Genesis  time.Time
	Interval time.Duration

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func NewIntervalClock(genesis time.Time, interval time.Duration) *IntervalClock {
	return &IntervalClock{
		Genesis:  genesis.UTC(),
		Interval: interval,
	}
}

func (c *IntervalClock) Height(_ context.Context) (uint64, error) {
	if c.Interval <= 0 {
		return 0, errors.New("block interval must be positive")
	}
	now := time.Now().UTC()
	if c.Now != nil {
		now = c.Now().UTC()
	}
	if now.Before(c.Genesis) {
		return 0, nil
	}
	return uint64(now.Sub(c.Genesis) / c.Interval), nil
}

// PrevStepDigest derives the per-height environment digest. Without a
// real consensus layer underneath, the digest is a keyed hash of the
// height, which keeps draws reproducible for auditors.
func (c *IntervalClock) PrevStepDigest(_ context.Context, height uint64) ([]byte, error) {
	return heightDigest("prev-step-digest", height), nil
}

// StepSeed derives the per-height environment seed.
func (c *IntervalClock) StepSeed(_ context.Context, height uint64) ([]byte, error) {
	return heightDigest("step-seed", height), nil
}

func heightDigest(domain string, height uint64) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	h.Write(buf[:])
	return h.Sum(nil)
}
