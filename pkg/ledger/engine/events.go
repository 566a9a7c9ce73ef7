package engine

import "github.com/northbank/ledgercore/pkg/ledger"

// EventPublisher is the best-effort, post-commit notification hook
// SPEC_FULL.md's domain-stack expansion adds on top of spec.md: after a
// transaction reaches COMPLETED or FAILED, the engine publishes one
// event and logs (never returns) any publish error. It is never part of
// a commit's atomicity.
type EventPublisher interface {
	PublishCompleted(tx *ledger.Transaction)
	PublishFailed(tx *ledger.Transaction)
}

// noopPublisher discards events; used when no broker is configured.
type noopPublisher struct{}

func (noopPublisher) PublishCompleted(*ledger.Transaction) {}
func (noopPublisher) PublishFailed(*ledger.Transaction)    {}

// NoopPublisher returns an EventPublisher that does nothing.
func NoopPublisher() EventPublisher { return noopPublisher{} }
