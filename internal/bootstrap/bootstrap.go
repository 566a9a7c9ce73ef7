// Package bootstrap wires the ledgercore process together, grounded on
// the teacher's infra/initializer.InitializeDependencies: read config,
// build a logger, open storage, construct the engine, return the
// assembled Deps for cmd/ entrypoints to drive.
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/northbank/ledgercore/internal/events/kafkapublish"
	"github.com/northbank/ledgercore/internal/logging"
	"github.com/northbank/ledgercore/internal/storage/gormstore"
	"github.com/northbank/ledgercore/pkg/config"
	"github.com/northbank/ledgercore/pkg/ledger/engine"
)

// Initialize loads storage, the event publisher and the ledger engine
// from cfg and returns the assembled Deps.
func Initialize(cfg *config.App) (*config.Deps, error) {
	logger := logging.New(cfg.Log)

	db, err := gormstore.Connect(cfg.DB.Url, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect database: %w", err)
	}
	if err := gormstore.Migrate(db); err != nil {
		return nil, fmt.Errorf("bootstrap: migrate schema: %w", err)
	}

	uow := gormstore.New(db)
	router := engine.NewSystemAccountRouter()

	ledgerCfg, err := cfg.Ledger.ToLedgerConfig()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: ledger config: %w", err)
	}

	var publisher engine.EventPublisher = engine.NoopPublisher()
	if cfg.Kafka.Enabled {
		logger.Info("publishing ledger events to kafka", "brokers", cfg.Kafka.Brokers)
		publisher = kafkapublish.New(strings.Split(cfg.Kafka.Brokers, ","), logger)
	}

	eng := engine.New(uow, router, ledgerCfg, logger, engine.WithPublisher(publisher))

	return &config.Deps{
		Uow:       uow,
		Engine:    eng,
		Publisher: publisher,
		Logger:    logger,
		Config:    cfg,
	}, nil
}
