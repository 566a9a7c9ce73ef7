// Package kafkapublish is the best-effort domain-event publisher
// SPEC_FULL.md's domain-stack expansion adds on top of spec.md, grounded
// on the sheikh-saqib distributed-ledger example's
// internal/events/kafka.Publisher: one *kafka.Writer, JSON-encoded
// messages, one topic per event kind.
package kafkapublish

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/northbank/ledgercore/pkg/ledger"
	"github.com/segmentio/kafka-go"
)

const (
	topicTransactionCompleted = "ledger.transaction.completed"
	topicTransactionFailed    = "ledger.transaction.failed"
)

// transactionEvent is the wire shape published for both event kinds.
type transactionEvent struct {
	TransactionID string         `json:"transactionId"`
	Kind          string         `json:"kind"`
	Status        string         `json:"status"`
	Amount        string         `json:"amount"`
	Currency      string         `json:"currency"`
	FromAccount   string         `json:"fromAccountNumber,omitempty"`
	ToAccount     string         `json:"toAccountNumber,omitempty"`
	FailureReason string         `json:"failureReason,omitempty"`
	PublishedAt   time.Time      `json:"publishedAt"`
}

// Publisher writes TransactionCompleted/TransactionFailed events to
// Kafka. Publish failures are logged, never returned — spec's engine
// contract treats notification as best-effort, outside commit
// atomicity.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// New builds a Publisher against the given brokers.
func New(brokers []string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

func (p *Publisher) publish(topic string, t *ledger.Transaction) {
	evt := transactionEvent{
		TransactionID: t.TransactionID,
		Kind:          string(t.Kind),
		Status:        string(t.Status),
		Amount:        t.Amount.String(),
		Currency:      string(t.Currency),
		FromAccount:   t.FromAccountNumber,
		ToAccount:     t.ToAccountNumber,
		FailureReason: t.FailureReason,
		PublishedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		p.log("marshal event", t.TransactionID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(t.TransactionID),
		Value: data,
	}); err != nil {
		p.log("publish event", t.TransactionID, err)
	}
}

func (p *Publisher) log(action, transactionID string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("kafkapublish: "+action+" failed", "transactionId", transactionID, "error", err)
}

// PublishCompleted implements engine.EventPublisher.
func (p *Publisher) PublishCompleted(t *ledger.Transaction) {
	p.publish(topicTransactionCompleted, t)
}

// PublishFailed implements engine.EventPublisher.
func (p *Publisher) PublishFailed(t *ledger.Transaction) {
	p.publish(topicTransactionFailed, t)
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
