package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"documet/internal/model"
)

// VectorJobPublisher enqueues vector index reconciliation jobs. Jobs are
// durable so a pending rebuild survives a broker restart.
type VectorJobPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewVectorJobPublisher(conn *amqp.Connection, queueName string) *VectorJobPublisher {
	return &VectorJobPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *VectorJobPublisher) Publish(ctx context.Context, job model.VectorJob) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal vector job failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish vector job failed: %w", err)
	}
	return nil
}
