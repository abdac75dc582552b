package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	InstanceEvents *InstanceEventService
}

func InitProduce(channel *amqp.Channel) *Produce {
	instanceEvents := InitInstanceEventService(channel)
	if instanceEvents == nil {
		panic("Failed to initialize Instance Event service")
	}

	return &Produce{
		InstanceEvents: instanceEvents,
	}
}
