package services

import (
	"errors"
	"math"
	"testing"

	domainerrors "arboretum/contexts/garden-core/reward-distributor/domain/errors"
)

func TestNumericIdentityFitsThirtyTwoBits(t *testing.T) {
	for _, id := range []string{"gardener_1", "gardener_2", "", "a-very-long-gardener-identity"} {
		value := NumericIdentity(id)
		if value > math.MaxUint32 {
			t.Fatalf("numeric identity for %q exceeds 32 bits: %d", id, value)
		}
	}
	if NumericIdentity("gardener_1") == NumericIdentity("gardener_2") {
		t.Fatal("expected distinct identities for distinct gardeners")
	}
}

func TestMixEntropyDeterministic(t *testing.T) {
	first, err := MixEntropy(42, "gardener_1", 100)
	if err != nil {
		t.Fatalf("mix failed: %v", err)
	}
	second, err := MixEntropy(42, "gardener_1", 100)
	if err != nil {
		t.Fatalf("mix failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected deterministic mix, got %d vs %d", first, second)
	}

	other, err := MixEntropy(42, "gardener_1", 101)
	if err != nil {
		t.Fatalf("mix failed: %v", err)
	}
	if other == first {
		t.Fatal("expected height to change the mix")
	}
}

func TestMixEntropyOverflowFailsLoudly(t *testing.T) {
	_, err := MixEntropy(0, "gardener_1", math.MaxUint64)
	if !errors.Is(err, domainerrors.ErrArithmeticOverflow) {
		t.Fatalf("expected arithmetic overflow, got %v", err)
	}
}

func TestDrawDeterministic(t *testing.T) {
	in := DrawInput{
		GardenerID:     "gardener_1",
		PrevStepDigest: []byte{1, 2, 3},
		TimestampNanos: 1700000000,
		StepSeed:       []byte{4, 5, 6},
		LedgerIdentity: "garden",
		Entropy:        99,
	}
	if Draw(in) != Draw(in) {
		t.Fatal("expected identical draws for identical inputs")
	}

	in.Entropy = 100
	if Draw(in) == Draw(DrawInput{
		GardenerID:     "gardener_1",
		PrevStepDigest: []byte{1, 2, 3},
		TimestampNanos: 1700000000,
		StepSeed:       []byte{4, 5, 6},
		LedgerIdentity: "garden",
		Entropy:        99,
	}) {
		t.Fatal("expected entropy to change the draw")
	}
}

func TestRollStaysInBand(t *testing.T) {
	for i := 0; i < 64; i++ {
		in := DrawInput{
			GardenerID:     "gardener_1",
			PrevStepDigest: []byte{byte(i)},
			TimestampNanos: int64(i),
			StepSeed:       []byte{byte(i), byte(i)},
			LedgerIdentity: "garden",
			Entropy:        uint64(i),
		}
		roll := Roll(Draw(in), 1000)
		if roll > 1000 {
			t.Fatalf("roll %d outside [0, 1000]", roll)
		}
	}
}

func TestRewardForRoll(t *testing.T) {
	cases := []struct {
		name   string
		pool   uint64
		roll   uint64
		reward uint64
	}{
		{name: "miss band zero", pool: 10000, roll: 0, reward: 0},
		{name: "miss band top", pool: 10000, roll: 4, reward: 0},
		{name: "five hundred basis points", pool: 10000, roll: 500, reward: 500},
		{name: "truncates to zero", pool: 1000, roll: 5, reward: 0},
		{name: "small pool large roll", pool: 100, roll: 9999, reward: 99},
		{name: "full band", pool: 10000, roll: 10000, reward: 10000},
		{name: "share exceeds pool", pool: 10, roll: 20000, reward: 0},
	}
	for _, tc := range cases {
		reward, err := RewardForRoll(tc.pool, tc.roll)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if reward != tc.reward {
			t.Fatalf("%s: expected reward %d, got %d", tc.name, tc.reward, reward)
		}
	}
}

func TestRewardForRollOverflow(t *testing.T) {
	_, err := RewardForRoll(math.MaxUint64, 10000)
	if !errors.Is(err, domainerrors.ErrArithmeticOverflow) {
		t.Fatalf("expected arithmetic overflow, got %v", err)
	}
}
