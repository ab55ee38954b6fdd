package producer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/agent-bet-arena/internal/ports"
	skafka "github.com/radieske/agent-bet-arena/internal/shared/kafka"
	"github.com/radieske/agent-bet-arena/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de domínio, um writer por tópico.
// A chave da mensagem é o id da partida, então eventos da mesma partida ficam ordenados.
type KafkaPublisher struct {
	WagerPlaced  *kafka.Writer
	WagerSettled *kafka.Writer
	MatchSettled *kafka.Writer
}

var _ ports.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher cria os writers; topic vazio desliga aquele evento
func NewKafkaPublisher(brokers, topicPlaced, topicWagerSettled, topicMatchSettled string) *KafkaPublisher {
	p := &KafkaPublisher{}
	if topicPlaced != "" {
		p.WagerPlaced = skafka.NewWriter(brokers, topicPlaced)
	}
	if topicWagerSettled != "" {
		p.WagerSettled = skafka.NewWriter(brokers, topicWagerSettled)
	}
	if topicMatchSettled != "" {
		p.MatchSettled = skafka.NewWriter(brokers, topicMatchSettled)
	}
	return p
}

func (p *KafkaPublisher) PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	return write(ctx, p.WagerPlaced, e.MatchID, e)
}

func (p *KafkaPublisher) PublishWagerSettled(ctx context.Context, e events.WagerSettled) error {
	return write(ctx, p.WagerSettled, e.MatchID, e)
}

func (p *KafkaPublisher) PublishMatchSettled(ctx context.Context, e events.MatchSettled) error {
	return write(ctx, p.MatchSettled, e.MatchID, e)
}

// Close fecha todos os writers abertos
func (p *KafkaPublisher) Close() error {
	var first error
	for _, w := range []*kafka.Writer{p.WagerPlaced, p.WagerSettled, p.MatchSettled} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func write(ctx context.Context, w *kafka.Writer, matchID int64, v any) error {
	if w == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, w, strconv.FormatInt(matchID, 10), b)
}
