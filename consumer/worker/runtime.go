package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/scalade/scalade-api/entity"
	"github.com/scalade/scalade-api/infra"
	"github.com/scalade/scalade-api/repository"
	"github.com/scalade/scalade-api/utils"
)

const RuntimeRPCQueue = "runtime.rpc"

// Message types carried in the Type header of runtime RPC requests.
const (
	TypeRetrieveInstance = "retrieve_instance"
	TypeAppendLog        = "append_log"
	TypeChangeStatus     = "change_status"
	TypeCreateOutput     = "create_output"
)

// RuntimeConsumer serves the same four runtime operations as the HTTP
// surface to workers that talk over RabbitMQ instead. Each request names
// its instance directly; replies go to the message's reply-to queue.
type RuntimeConsumer struct {
	channel    *amqp.Channel
	infra      *infra.Infra
	repository *repository.Repository
}

type runtimeRequest struct {
	FiUUID       string `json:"fi_uuid"`
	LogMessage   string `json:"log_message,omitempty"`
	LogLevel     string `json:"log_level,omitempty"`
	StatusMethod string `json:"status_method,omitempty"`
	Output       string `json:"output,omitempty"`
}

type runtimeReply struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

func NewRuntimeConsumer(channel *amqp.Channel, infra *infra.Infra, repo *repository.Repository) *RuntimeConsumer {
	return &RuntimeConsumer{
		channel:    channel,
		infra:      infra,
		repository: repo,
	}
}

func (c *RuntimeConsumer) Start(ctx context.Context) error {
	_, err := c.channel.QueueDeclare(
		RuntimeRPCQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare runtime rpc queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		RuntimeRPCQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register runtime rpc consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Runtime Consumer] Started listening for rpc requests on queue: %s", RuntimeRPCQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Runtime Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Runtime Consumer] Channel closed")
					return
				}
				c.handleRequest(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *RuntimeConsumer) handleRequest(ctx context.Context, msg amqp.Delivery) {
	var req runtimeRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Runtime Consumer] Failed to unmarshal request: %v", err)
		c.reply(ctx, msg, runtimeReply{Success: false, Error: "malformed request body"})
		_ = msg.Nack(false, false)
		return
	}

	fiUUID, err := uuid.Parse(req.FiUUID)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Runtime Consumer] Invalid fi_uuid '%s': %v", req.FiUUID, err)
		c.reply(ctx, msg, runtimeReply{Success: false, Error: "invalid fi_uuid"})
		_ = msg.Nack(false, false)
		return
	}

	var result interface{}
	switch msg.Type {
	case TypeRetrieveInstance:
		result, err = c.retrieveInstance(fiUUID)
	case TypeAppendLog:
		result, err = c.appendLog(ctx, fiUUID, req)
	case TypeChangeStatus:
		result, err = c.changeStatus(ctx, fiUUID, req)
	case TypeCreateOutput:
		result, err = c.createOutput(ctx, fiUUID, req)
	default:
		c.infra.Logger.WarningWithContextf(ctx, "[Runtime Consumer] Unknown message type '%s'", msg.Type)
		c.reply(ctx, msg, runtimeReply{Success: false, Error: fmt.Sprintf("unknown message type '%s'", msg.Type)})
		_ = msg.Nack(false, false)
		return
	}

	if err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Runtime Consumer] %s failed for %s: %v", msg.Type, fiUUID, err)
		c.reply(ctx, msg, runtimeReply{Success: false, Error: err.Error()})
		_ = msg.Ack(false)
		return
	}

	c.reply(ctx, msg, runtimeReply{Success: true, Result: result})
	_ = msg.Ack(false)
}

func (c *RuntimeConsumer) retrieveInstance(fiUUID uuid.UUID) (interface{}, error) {
	instance, err := c.repository.FunctionInstanceRepo.FindByUUID(fiUUID)
	if err != nil {
		return nil, err
	}
	inputs, err := c.repository.VariableRepo.ListByInstance(fiUUID, entity.VariableInput)
	if err != nil {
		return nil, err
	}
	outputs, err := c.repository.VariableRepo.ListByInstance(fiUUID, entity.VariableOutput)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"function_instance": instance,
		"inputs":            inputs,
		"outputs":           outputs,
	}, nil
}

func (c *RuntimeConsumer) appendLog(ctx context.Context, fiUUID uuid.UUID, req runtimeRequest) (interface{}, error) {
	message, err := c.repository.LogMessageRepo.Append(fiUUID, req.LogMessage, entity.LogLevel(req.LogLevel))
	if err != nil {
		return nil, err
	}
	c.publishLogAppended(ctx, fiUUID, string(message.LogLevel))
	return message, nil
}

func (c *RuntimeConsumer) changeStatus(ctx context.Context, fiUUID uuid.UUID, req runtimeRequest) (interface{}, error) {
	method, err := entity.ParseStatusMethod(req.StatusMethod)
	if err != nil {
		return nil, err
	}
	instance, err := c.repository.FunctionInstanceRepo.UpdateStatus(fiUUID, method)
	if err != nil {
		return nil, err
	}
	c.publishStatusChanged(ctx, instance)
	return instance, nil
}

func (c *RuntimeConsumer) createOutput(ctx context.Context, fiUUID uuid.UUID, req runtimeRequest) (interface{}, error) {
	raw, err := utils.DecodeB64(req.Output)
	if err != nil {
		return nil, err
	}

	var payload struct {
		IDName  string `json:"id_name"`
		Type    string `json:"type"`
		Charset string `json:"charset"`
		Bytes   string `json:"bytes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.New("malformed output payload")
	}
	valueBytes, err := utils.DecodeB64(payload.Bytes)
	if err != nil {
		return nil, err
	}

	variable, err := c.repository.VariableRepo.CreateOutput(fiUUID, repository.OutputSpec{
		IDName:  payload.IDName,
		Type:    payload.Type,
		Charset: payload.Charset,
		Bytes:   valueBytes,
	})
	if err != nil {
		return nil, err
	}
	c.publishOutputCreated(ctx, fiUUID, variable.IDName)
	return variable, nil
}

func (c *RuntimeConsumer) reply(ctx context.Context, msg amqp.Delivery, payload runtimeReply) {
	if msg.ReplyTo == "" {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Runtime Consumer] Failed to marshal reply: %v", err)
		return
	}
	err = c.channel.PublishWithContext(
		ctx,
		"",
		msg.ReplyTo,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: msg.CorrelationId,
			Body:          body,
		},
	)
	if err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Runtime Consumer] Failed to publish reply to '%s': %v", msg.ReplyTo, err)
	}
}

func (c *RuntimeConsumer) publishStatusChanged(ctx context.Context, instance *entity.FunctionInstance) {
	if c.infra.Produce == nil {
		return
	}
	err := c.infra.Produce.InstanceEvents.PublishStatusChanged(ctx,
		instance.UUID.String(), instance.StreamUUID.String(), string(instance.Status))
	if err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Runtime Consumer] Failed to publish status event for %s: %v", instance.UUID, err)
	}
}

func (c *RuntimeConsumer) publishLogAppended(ctx context.Context, fiUUID uuid.UUID, level string) {
	if c.infra.Produce == nil {
		return
	}
	if err := c.infra.Produce.InstanceEvents.PublishLogAppended(ctx, fiUUID.String(), level); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Runtime Consumer] Failed to publish log event for %s: %v", fiUUID, err)
	}
}

func (c *RuntimeConsumer) publishOutputCreated(ctx context.Context, fiUUID uuid.UUID, idName string) {
	if c.infra.Produce == nil {
		return
	}
	if err := c.infra.Produce.InstanceEvents.PublishOutputCreated(ctx, fiUUID.String(), idName); err != nil {
		c.infra.Logger.WarningWithContextf(ctx, "[Runtime Consumer] Failed to publish output event for %s: %v", fiUUID, err)
	}
}
