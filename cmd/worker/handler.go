package main

import (
	"errors"
	"log/slog"

	"github.com/jeremyjsx/journal/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

// handleDelivery acks every well-formed post event, and unknown event types
// too so they do not cycle. Bodies that cannot be decoded are dropped with a
// nack without requeue.
func handleDelivery(logger *slog.Logger, d amqp.Delivery) {
	e, err := events.Decode(d.Body)
	if err != nil {
		if errors.Is(err, events.ErrUnknownType) {
			logger.Debug("ignoring event type", "type", e.Type)
			ack(logger, d)
			return
		}
		logger.Error("invalid event body", "error", err, "routing_key", d.RoutingKey)
		if err := d.Nack(false, false); err != nil {
			logger.Error("failed to nack", "error", err)
		}
		return
	}

	switch e.Type {
	case events.TypePostPublished:
		logger.Info("post published",
			"post_id", e.Payload.PostID,
			"title", e.Payload.Title,
			"category", e.Payload.Category,
		)
	case events.TypePostUnpublished:
		logger.Info("post unpublished", "post_id", e.Payload.PostID)
	}
	ack(logger, d)
}

func ack(logger *slog.Logger, d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		logger.Error("failed to ack", "error", err)
	}
}
