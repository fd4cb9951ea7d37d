package postgresadapter

import (
	"time"

	"arboretum/contexts/garden-core/reward-distributor/ports"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var _ ports.Clock = SystemClock{}
