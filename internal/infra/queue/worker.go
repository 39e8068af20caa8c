package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// WonNotifier announces a lead that reached the Won stage.
type WonNotifier interface {
	NotifyWon(ctx context.Context, event StageCommittedEvent) error
}

// Consumer is the part of an AMQP channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel   Consumer
	Notifiers []WonNotifier
	logger    *zap.Logger
}

func NewWorker(ch Consumer, logger *zap.Logger, notifiers ...WonNotifier) *Worker {
	return &Worker{
		Channel:   ch,
		Notifiers: notifiers,
		logger:    logger.Named("worker"),
	}
}

// Start consumes until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	w.logger.Info("worker waiting for stage events", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event StageCommittedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.logger.Warn("malformed stage event, dead-lettering", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := w.processMessage(ctx, event); err != nil {
		w.logger.Error("stage event processing failed",
			zap.String("transition_id", event.TransitionID),
			zap.Int("lead_id", event.LeadID),
			zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Only Won commits fan out; every other stage is acknowledged as is.
func (w *Worker) processMessage(ctx context.Context, event StageCommittedEvent) error {
	if !strings.EqualFold(strings.TrimSpace(event.StageName), "won") {
		w.logger.Debug("stage event acknowledged",
			zap.Int("lead_id", event.LeadID),
			zap.String("stage", event.StageName))
		return nil
	}

	var errs []error
	for _, n := range w.Notifiers {
		if err := n.NotifyWon(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(w.Notifiers) && len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		w.logger.Warn("won notification failed", zap.Int("lead_id", event.LeadID), zap.Error(err))
	}
	w.logger.Info("won lead announced", zap.Int("lead_id", event.LeadID), zap.String("transition_id", event.TransitionID))
	return nil
}
