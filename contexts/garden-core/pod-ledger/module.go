package podledger

import (
	"log/slog"

	httpadapter "arboretum/contexts/garden-core/pod-ledger/adapters/http"
	"arboretum/contexts/garden-core/pod-ledger/adapters/memory"
	"arboretum/contexts/garden-core/pod-ledger/application"
	"arboretum/contexts/garden-core/pod-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Pods        ports.PodRepository
	Ledger      ports.ValueLedger
	Blocks      ports.BlockClock
	Params      ports.GrowthParams
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Pods:   deps.Pods,
		Ledger: deps.Ledger,
		Blocks: deps.Blocks,
		Params: deps.Params,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Pods:        store,
		Ledger:      store,
		Blocks:      store,
		Params:      store,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
