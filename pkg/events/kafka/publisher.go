// Package kafka publishes ledger events to a Kafka topic
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
)

// EventMessage is the JSON payload of one published ledger event
type EventMessage struct {
	Token       common.Address  `json:"token"`
	OperationID string          `json:"operation_id,omitempty"`
	Seq         uint64          `json:"seq"`
	Kind        string          `json:"kind"`
	From        common.Address  `json:"from"`
	To          common.Address  `json:"to"`
	Spender     *common.Address `json:"spender,omitempty"`
	// Value is the raw amount in base units
	Value string `json:"value"`
	// Amount is Value in whole tokens
	Amount decimal.Decimal `json:"amount"`
	Topics []common.Hash   `json:"topics"`
	Data   hexutil.Bytes   `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes ledger events to a single topic, keyed by token address
// so that every event of one ledger lands on the same partition in order.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a publisher writing to topic on brokers
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// Publish sends events in one batch
func (p *Publisher) Publish(ctx context.Context, token common.Address, opID uuid.UUID, events ...ledger.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := NewMessage(token, opID, ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(msgs), err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewMessage builds the Kafka message for one event
func NewMessage(token common.Address, opID uuid.UUID, ev ledger.Event) (kafka.Message, error) {
	log, err := ev.Log(token)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event %d: %w", ev.Seq, err)
	}

	value := ev.Value
	if value == nil {
		value = new(uint256.Int)
	}

	payload := EventMessage{
		Token:  token,
		Seq:    ev.Seq,
		Kind:   string(ev.Kind),
		From:   ev.From,
		To:     ev.To,
		Value:  value.Dec(),
		Amount: ledger.ToDecimal(value, ledger.Decimals),
		Topics: log.Topics,
		Data:   log.Data,
	}
	if opID != uuid.Nil {
		payload.OperationID = opID.String()
	}
	if ev.Delegated() {
		spender := ev.Spender
		payload.Spender = &spender
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event %d: %w", ev.Seq, err)
	}

	return kafka.Message{
		Key:   []byte(token.Hex()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
			{Key: "seq", Value: []byte(fmt.Sprintf("%d", ev.Seq))},
		},
	}, nil
}
