package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/tower-construction-game/internal/repository"
)

const renovationQueueName = "renovation.requested"

// RenovationConsumer executes renovation orders delivered over the
// broker: claim the order, run the image post-processing call, apply the
// wear reduction and complete. A transient failure reverts the order to
// pending and requeues the delivery so it is retried.
type RenovationConsumer struct {
	URL         string // broker endpoint
	Renovations *repository.RenovationRepo
	Rooms       *repository.RoomRepo

	// ImageServiceURL is the post-processing endpoint rendering the
	// renovated room tile. Empty disables the call.
	ImageServiceURL string
	Client          *http.Client
}

// NewRenovationConsumer wires a consumer with a bounded HTTP client.
func NewRenovationConsumer(url string, ren *repository.RenovationRepo, rooms *repository.RoomRepo, imageURL string, imageTimeout time.Duration) *RenovationConsumer {
	return &RenovationConsumer{
		URL:             url,
		Renovations:     ren,
		Rooms:           rooms,
		ImageServiceURL: imageURL,
		Client:          &http.Client{Timeout: imageTimeout},
	}
}

// Start connects to the broker, declares the durable queue and consumes
// until the process exits. Connection loss triggers a reconnect with
// capped exponential backoff; the function never returns under normal
// operation.
func (rc *RenovationConsumer) Start() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(rc.URL)
		if err != nil {
			log.Printf("renovation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := rc.consumeLoop(conn); err != nil {
			log.Printf("renovation-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (rc *RenovationConsumer) consumeLoop(conn *amqp.Connection) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("renovation-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(renovationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(renovationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		retryable, err := rc.handleMessage(d.Body)
		if err != nil {
			log.Printf("renovation-consumer: handle message failed: %v", err)
			// Requeue transient failures so the order is retried;
			// malformed or stale messages are dropped.
			_ = d.Nack(false, retryable)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handleMessage processes one delivery. The bool reports whether a
// failure is retryable (transient) as opposed to a poison message.
func (rc *RenovationConsumer) handleMessage(body []byte) (bool, error) {
	var ev RenovationRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return false, fmt.Errorf("unmarshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	order, err := rc.Renovations.GetByID(ctx, ev.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return false, fmt.Errorf("order %d not found", ev.OrderID)
		}
		return true, fmt.Errorf("load order %d: %w", ev.OrderID, err)
	}

	claimed, err := rc.Renovations.MarkProcessing(ctx, order.ID)
	if err != nil {
		return true, fmt.Errorf("claim order %d: %w", order.ID, err)
	}
	if !claimed {
		// Already claimed or completed by an earlier delivery.
		log.Printf("renovation-consumer: order %d not pending, skipping", order.ID)
		return false, nil
	}

	if err := rc.renderImage(ctx, order.RoomID, order.Kind); err != nil {
		if revErr := rc.Renovations.RevertToPending(ctx, order.ID); revErr != nil {
			log.Printf("renovation-consumer: revert order %d failed: %v", order.ID, revErr)
		}
		return true, fmt.Errorf("image post-processing for order %d: %w", order.ID, err)
	}

	if err := rc.Rooms.ReduceWear(ctx, order.RoomID, order.WearReduction); err != nil {
		if revErr := rc.Renovations.RevertToPending(ctx, order.ID); revErr != nil {
			log.Printf("renovation-consumer: revert order %d failed: %v", order.ID, revErr)
		}
		return true, fmt.Errorf("reduce wear for order %d: %w", order.ID, err)
	}
	if err := rc.Renovations.Complete(ctx, order.ID); err != nil {
		return true, fmt.Errorf("complete order %d: %w", order.ID, err)
	}

	log.Printf("renovation-consumer: order %d completed | room_id=%d | kind=%s | wear_reduction=%d",
		order.ID, order.RoomID, order.Kind, order.WearReduction)
	return false, nil
}

// renderImage calls the image post-processing endpoint for the renovated
// room. A disabled endpoint is a no-op.
func (rc *RenovationConsumer) renderImage(ctx context.Context, roomID uint64, kind string) error {
	if rc.ImageServiceURL == "" {
		return nil
	}
	payload, err := json.Marshal(map[string]any{"room_id": roomID, "kind": kind})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.ImageServiceURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := rc.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("image service returned %s", resp.Status)
	}
	return nil
}
