package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StageCommittedEvent is published after a lead's new status is persisted.
type StageCommittedEvent struct {
	TransitionID string    `json:"transition_id"`
	LeadID       int       `json:"lead_id"`
	StageID      int       `json:"stage_id"`
	StageName    string    `json:"stage_name"`
	ActorID      int       `json:"actor_id"`
	Amount       *float64  `json:"amount,omitempty"`
	Remark       string    `json:"remark"`
	ProjectValue *float64  `json:"project_value,omitempty"`
	CommittedAt  time.Time `json:"committed_at"`
}

// Publisher is the part of an AMQP channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishStageCommitted(ctx context.Context, event StageCommittedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode stage event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.TransitionID,
			Timestamp:    event.CommittedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish stage event: %w", err)
	}
	return nil
}
