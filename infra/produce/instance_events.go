package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	StreamEventsExchange     = "stream.events"
	InstanceEventsQueue      = "instance.events"
	InstanceEventsRoutingKey = "instance.events"
)

// Event kinds carried by instance event messages.
const (
	EventStatusChanged = "status_changed"
	EventLogAppended   = "log_appended"
	EventOutputCreated = "output_created"
)

// InstanceEventService publishes function instance lifecycle events for
// dashboard consumers. Publish failures must never fail the API request
// that triggered them.
type InstanceEventService struct {
	channel *amqp.Channel
}

type InstanceEventMessage struct {
	Kind         string `json:"kind"`
	InstanceUUID string `json:"instance_uuid"`
	StreamUUID   string `json:"stream_uuid,omitempty"`
	Status       string `json:"status,omitempty"`
	LogLevel     string `json:"log_level,omitempty"`
	IDName       string `json:"id_name,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

func InitInstanceEventService(channel *amqp.Channel) *InstanceEventService {
	service := &InstanceEventService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		StreamEventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare stream events exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		InstanceEventsQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare instance events queue: " + err.Error())
	}

	err = channel.QueueBind(
		InstanceEventsQueue,
		InstanceEventsRoutingKey,
		StreamEventsExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind instance events queue: " + err.Error())
	}

	return service
}

func (s *InstanceEventService) PublishStatusChanged(ctx context.Context, instanceUUID, streamUUID, status string) error {
	return s.publish(ctx, InstanceEventMessage{
		Kind:         EventStatusChanged,
		InstanceUUID: instanceUUID,
		StreamUUID:   streamUUID,
		Status:       status,
	})
}

func (s *InstanceEventService) PublishLogAppended(ctx context.Context, instanceUUID, logLevel string) error {
	return s.publish(ctx, InstanceEventMessage{
		Kind:         EventLogAppended,
		InstanceUUID: instanceUUID,
		LogLevel:     logLevel,
	})
}

func (s *InstanceEventService) PublishOutputCreated(ctx context.Context, instanceUUID, idName string) error {
	return s.publish(ctx, InstanceEventMessage{
		Kind:         EventOutputCreated,
		InstanceUUID: instanceUUID,
		IDName:       idName,
	})
}

func (s *InstanceEventService) publish(ctx context.Context, message InstanceEventMessage) error {
	message.Timestamp = time.Now().Unix()

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		StreamEventsExchange,
		InstanceEventsRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
