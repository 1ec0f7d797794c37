package mrabbitmq

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/elder-platform/elder/common/mlog"
)

// RabbitMQConnection is a hub which deals with the rabbitmq connection used
// to publish GroupSyncRequested events from the group-membership workflow.
type RabbitMQConnection struct {
	ConnectionStringSource string
	Consumer               string
	Producer               string
	Channel                *amqp.Channel
	conn                   *amqp.Connection
	Connected              bool
	Logger                 mlog.Logger
}

func (rc *RabbitMQConnection) logger() mlog.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}

	return &mlog.NoneLogger{}
}

// Connect keeps a singleton connection with rabbitmq.
func (rc *RabbitMQConnection) Connect(ctx context.Context) error {
	logger := rc.logger()
	logger.Info("connecting to rabbitmq")

	conn, err := amqp.DialConfig(rc.ConnectionStringSource, amqp.Config{})
	if err != nil {
		logger.Errorf("failed to connect to rabbitmq: %v", err)
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Errorf("failed to open rabbitmq channel: %v", err)
		conn.Close()

		return err
	}

	rc.conn = conn
	rc.Channel = ch

	if !rc.healthCheck() {
		rc.Connected = false
		ch.Close()
		conn.Close()

		return errors.New("rabbitmq health check failed")
	}

	logger.Info("connected to rabbitmq")

	rc.Connected = true

	return nil
}

// GetChannel returns the rabbitmq channel, initializing the connection if necessary.
func (rc *RabbitMQConnection) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	if !rc.Connected {
		if err := rc.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return rc.Channel, nil
}

// healthCheck declares the durable health-check queue, creating it on
// first use, to confirm the channel is usable.
func (rc *RabbitMQConnection) healthCheck() bool {
	_, err := rc.Channel.QueueDeclare(
		"elder_health_check",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		rc.logger().Errorf("rabbitmq health check queue declare failed: %v", err)
		return false
	}

	return true
}

// Close tears down the channel and connection.
func (rc *RabbitMQConnection) Close() error {
	if rc.Channel != nil {
		if err := rc.Channel.Close(); err != nil {
			return err
		}
	}

	if rc.conn != nil {
		return rc.conn.Close()
	}

	return nil
}
