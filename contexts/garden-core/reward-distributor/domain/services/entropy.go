package services

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"math/bits"

	domainerrors "arboretum/contexts/garden-core/reward-distributor/domain/errors"
)

// The shake draw is deterministic and auditable by design: anyone who can
// observe the entropy counter and the environment inputs can predict the
// outcome. It is not a security boundary.

const (
	// entropySalt is a fixed constant folded into every entropy mix.
	entropySalt uint64 = 0x6a3f9b51c7e28d04

	// missBand is the number of low rolls that always pay nothing.
	missBand uint64 = 5

	// basisPointDenominator converts a roll into a pool share.
	basisPointDenominator uint64 = 10000
)

// NumericIdentity is the fixed-width numeric encoding of a gardener id:
// the first four bytes of its SHA-256 digest, widened to uint64 so the
// entropy mix has headroom before overflow-checked arithmetic trips.
func NumericIdentity(gardenerID string) uint64 {
	sum := sha256.Sum256([]byte(gardenerID))
	return uint64(binary.BigEndian.Uint32(sum[:4]))
}

// MixEntropy folds one shake attempt into the running entropy counter:
// entropy XOR (numericCaller * (height+1) + salt). Overflow of the
// multiplication or addition is a contract violation and fails loudly.
func MixEntropy(entropy uint64, gardenerID string, height uint64) (uint64, error) {
	step, err := addChecked(height, 1)
	if err != nil {
		return 0, err
	}
	product, err := mulChecked(NumericIdentity(gardenerID), step)
	if err != nil {
		return 0, err
	}
	term, err := addChecked(product, entropySalt)
	if err != nil {
		return 0, err
	}
	return entropy ^ term, nil
}

// DrawInput carries every component of the pseudo-random mix.
type DrawInput struct {
	GardenerID     string
	PrevStepDigest []byte
	TimestampNanos int64
	StepSeed       []byte
	LedgerIdentity string
	Entropy        uint64
}

// Draw hashes the mix components into the shake's pseudo-random value.
func Draw(in DrawInput) [32]byte {
	h := sha256.New()
	h.Write([]byte(in.GardenerID))
	h.Write(in.PrevStepDigest)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(in.TimestampNanos))
	h.Write(ts[:])

	h.Write(in.StepSeed)
	h.Write([]byte(in.LedgerIdentity))

	var ent [8]byte
	binary.BigEndian.PutUint64(ent[:], in.Entropy)
	h.Write(ent[:])

	var draw [32]byte
	copy(draw[:], h.Sum(nil))
	return draw
}

// Roll reduces a draw to the band [0, maxRewardBasisPoints], interpreting
// the digest as a big-endian 256-bit integer.
func Roll(draw [32]byte, maxRewardBasisPoints uint64) uint64 {
	mod := new(big.Int).Add(
		new(big.Int).SetUint64(maxRewardBasisPoints),
		big.NewInt(1),
	)
	value := new(big.Int).SetBytes(draw[:])
	return value.Mod(value, mod).Uint64()
}

// RewardForRoll settles a roll against the current pool balance. Rolls in
// the miss band pay nothing. A share that truncates to zero pays nothing,
// and so does a share larger than the pool, which is only reachable when
// MaxRewardBasisPoints exceeds 10000 (a latent misconfiguration the
// authority owns, deliberately left unvalidated upstream).
func RewardForRoll(pool uint64, roll uint64) (uint64, error) {
	if roll < missBand {
		return 0, nil
	}
	product, err := mulChecked(pool, roll)
	if err != nil {
		return 0, err
	}
	reward := product / basisPointDenominator
	if reward == 0 || reward > pool {
		return 0, nil
	}
	return reward, nil
}

func mulChecked(a uint64, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	return lo, nil
}

func addChecked(a uint64, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	return sum, nil
}

// AddChecked is the overflow-checked addition shared with the
// application layer for pool and cooldown arithmetic.
func AddChecked(a uint64, b uint64) (uint64, error) {
	return addChecked(a, b)
}
