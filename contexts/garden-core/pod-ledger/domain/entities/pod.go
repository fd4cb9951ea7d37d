package entities

import (
	"math/bits"

	domainerrors "arboretum/contexts/garden-core/pod-ledger/domain/errors"
)

// Pod is one growth pod, owned exclusively by the gardener who created it.
// A harvested pod keeps Exists=true with SeedAmount zero; its score is
// frozen because a zero seed accrues nothing.
type Pod struct {
	PodID           uint64
	GardenerID      string
	SeedAmount      uint64
	GrownScore      uint64
	LastUpdateBlock uint64
	CreationBlock   uint64
	Exists          bool
}

// Accrue folds the interval since LastUpdateBlock into the grown score:
// SeedAmount * elapsed * multiplier, overflow-checked. Invoked lazily at
// the start of every mutating pod operation; there is no scheduler.
func (p Pod) Accrue(now uint64, growthMultiplier uint64) (Pod, error) {
	if now <= p.LastUpdateBlock {
		return p, nil
	}
	elapsed := now - p.LastUpdateBlock

	gained, err := mulChecked(p.SeedAmount, elapsed)
	if err != nil {
		return Pod{}, err
	}
	gained, err = mulChecked(gained, growthMultiplier)
	if err != nil {
		return Pod{}, err
	}
	score, err := addChecked(p.GrownScore, gained)
	if err != nil {
		return Pod{}, err
	}

	p.GrownScore = score
	p.LastUpdateBlock = now
	return p, nil
}

// Water adds seed to the pod balance, overflow-checked.
func (p Pod) Water(amount uint64) (Pod, error) {
	seed, err := addChecked(p.SeedAmount, amount)
	if err != nil {
		return Pod{}, err
	}
	p.SeedAmount = seed
	return p, nil
}

// Harvest zeroes the seed and reports the withdrawn amount and the frozen
// score. The pod itself keeps existing so the id is never reused.
func (p Pod) Harvest() (Pod, uint64, uint64) {
	amount := p.SeedAmount
	p.SeedAmount = 0
	return p, amount, p.GrownScore
}

// Harvestable reports whether the pod still holds seed. A pod that was
// already harvested exists with zero seed and cannot be harvested again.
func (p Pod) Harvestable() bool {
	return p.Exists && p.SeedAmount > 0
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
