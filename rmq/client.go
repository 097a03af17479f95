package rmq

import (
	"text2phenotype.com/hmm/logger"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Config struct {
	Host                    string `envconfig:"MDL_COMN_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"MDL_COMN_RMQ_PORT" required:"true"`
	Username                string `envconfig:"MDL_COMN_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"MDL_COMN_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"MDL_COMN_RMQ_DEFAULT_EXCHANGE" default:"text2phenotype-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"HMM_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	TaskQueue               string `envconfig:"MDL_COMN_HMM_TASK_QUEUE" required:"true"`
	DoneQueue               string `envconfig:"MDL_COMN_HMM_DONE_QUEUE" required:"true"`
}

// Client consumes job messages from TaskQueue on one connection and publishes
// completion messages to DoneQueue on another.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	fdlLogger      zerolog.Logger
}

func NewClient() (*Client, error) {
	fdlLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fdlLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	url := getURL(config)
	respConn, respChannel, err := setup(url)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}

	client := &Client{
		config:      config,
		reqConn:     reqConn,
		respConn:    respConn,
		respChannel: respChannel,
		fdlLogger:   fdlLogger,
	}
	if err := client.consume(reqChannel); err != nil {
		client.Close()
		return nil, err
	}
	if _, err := respChannel.QueueDeclarePassive(config.DoneQueue, true, false, false, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("done queue %s: %w", config.DoneQueue, err)
	}
	client.ReqChanErrors = reqChannel.NotifyClose(make(chan *amqp.Error))
	client.RespChanErrors = respChannel.NotifyClose(make(chan *amqp.Error))
	fdlLogger.Info().
		Str("task_queue", config.TaskQueue).
		Str("done_queue", config.DoneQueue).
		Msg("Connected")
	return client, nil
}

func (c *Client) consume(ch *amqp.Channel) error {
	q, err := ch.QueueDeclarePassive(
		c.config.TaskQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		return fmt.Errorf("task queue %s: %w", c.config.TaskQueue, err)
	}
	if err := ch.QueueBind(q.Name, q.Name, c.config.Exchange, false, nil); err != nil {
		return err
	}
	if err := ch.Qos(c.config.MaxParallelRequestCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume deliveries: %w", err)
	}
	c.Deliveries = deliveries
	return nil
}

func (c *Client) SendDone(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.DoneQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
