package rewarddistributor

import (
	"log/slog"

	httpadapter "arboretum/contexts/garden-core/reward-distributor/adapters/http"
	"arboretum/contexts/garden-core/reward-distributor/adapters/memory"
	"arboretum/contexts/garden-core/reward-distributor/application"
	"arboretum/contexts/garden-core/reward-distributor/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	State          ports.RewardStateRepository
	Params         ports.ParameterStore
	Ledger         ports.ValueLedger
	Blocks         ports.BlockClock
	Env            ports.EntropyEnvironment
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	AuthorityID    string
	LedgerIdentity string
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		State:          deps.State,
		Params:         deps.Params,
		Ledger:         deps.Ledger,
		Blocks:         deps.Blocks,
		Env:            deps.Env,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		AuthorityID:    deps.AuthorityID,
		LedgerIdentity: deps.LedgerIdentity,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(authorityID string, ledgerIdentity string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		State:          store,
		Params:         store,
		Ledger:         store,
		Blocks:         store,
		Env:            store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		AuthorityID:    authorityID,
		LedgerIdentity: ledgerIdentity,
		Logger:         logger,
	})
	module.Store = store
	return module
}
