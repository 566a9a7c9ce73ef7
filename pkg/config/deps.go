package config

import (
	"log/slog"

	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/northbank/ledgercore/pkg/ledger/engine"
)

// Deps holds the wired infrastructure a running ledgercore process needs:
// the storage-backed unit of work, the engine built on top of it, the
// best-effort event publisher, and the logger threaded through both.
type Deps struct {
	Uow       ledger.UnitOfWork
	Engine    *engine.Engine
	Publisher engine.EventPublisher
	Logger    *slog.Logger
	Config    *App
}
