package postgresadapter

import (
	"context"

	"arboretum/contexts/garden-core/reward-distributor/ports"

	"github.com/google/uuid"
)

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.IDGenerator = UUIDGenerator{}
