// Package queue_publisher pushes domain events onto the broker. A
// publish failure is logged and returned; callers on the request path
// treat it as non-fatal so voting never blocks on the broker.
package queue_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/stasyao/mymdb/internal/queue"
)

// PublishVoteCast delivers one VoteCastEvent to the vote queue as a
// persistent JSON message. Each call opens and closes its own
// connection, so a broker hiccup on one request never leaks into the
// next.
func PublishVoteCast(ctx context.Context, event queue.VoteCastEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, ch, err := openChannel()
	if err != nil {
		log.Printf("vote-publisher: %v", err)
		return err
	}
	defer func() {
		_ = ch.Close()
		_ = conn.Close()
	}()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.VoteQueueName, false, false, pub); err != nil {
		log.Printf("vote-publisher: publish: %v", err)
		return err
	}
	return nil
}

// openChannel dials the broker and makes sure the durable vote queue
// exists before anything is published into it.
func openChannel() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(queue.BrokerURL())
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(queue.VoteQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	return conn, ch, nil
}
