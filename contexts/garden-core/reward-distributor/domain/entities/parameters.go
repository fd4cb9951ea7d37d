package entities

// Parameters is the process-wide garden configuration. Mutable only by
// the designated authority; changes affect future accrual and shake
// computations, never recorded history.
type Parameters struct {
	GrowthMultiplier       uint64
	MinimumBlocksForReward uint64
	MaxRewardBasisPoints   uint64
}
