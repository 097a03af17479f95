package worker

import (
	"text2phenotype.com/hmm/logger"
	"text2phenotype.com/hmm/pipeline"
	"text2phenotype.com/hmm/rmq"
	"text2phenotype.com/hmm/s3client"
	"text2phenotype.com/hmm/tasks"
	"text2phenotype.com/hmm/types"
	"errors"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"sync"
)

type Config struct {
	TaskMaxRetries int `envconfig:"MDL_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
}

// Worker runs tagging jobs announced on the task queue. Inputs and results live
// in S3, job state in Redis.
type Worker struct {
	config    Config
	outputs   types.OutputNames
	redis     redisTransactions
	s3        s3Transactions
	consumer  *consumer
	dialRMQ   func() (rmqTransactions, error)
	inflight  sync.WaitGroup
	fdlLogger *zerolog.Logger
	ppln      pipeline.Pipeline
}

// consumer is one RMQ connection together with the deliveries still being
// processed on it. Deliveries are settled on the connection they came from, so
// a replaced consumer is closed only after its in-flight deliveries finish.
type consumer struct {
	rmq      rmqTransactions
	inflight sync.WaitGroup
}

func (c *consumer) retire() {
	c.inflight.Wait()
	c.rmq.close()
}

func New(ppln pipeline.Pipeline, outputs types.OutputNames) (*Worker, error) {
	fdlLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fdlLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	s3Client, err := s3client.New()
	if err != nil {
		fdlLogger.Error().Err(err).Msg("Could not create S3 client")
		return nil, err
	}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		fdlLogger.Error().Err(err).Msg("Could not create Redis client")
		s3Client.Close()
		return nil, err
	}

	worker := &Worker{
		config:    config,
		outputs:   outputs,
		redis:     &redisClientWrapper{&tasksClient},
		s3:        &s3ClientWrapper{s3Client},
		dialRMQ:   dialRMQ,
		fdlLogger: &fdlLogger,
		ppln:      ppln,
	}
	if err := worker.reconnect(); err != nil {
		fdlLogger.Error().Err(err).Msg("Could not create RMQ client")
		worker.redis.close()
		worker.s3.close()
		return nil, err
	}
	return worker, nil
}

func dialRMQ() (rmqTransactions, error) {
	client, err := rmq.NewClient()
	if err != nil {
		return nil, err
	}
	return &rmqClientWrapper{client}, nil
}

// StartWorker consumes job messages until the RMQ connection is lost and cannot
// be re-established.
func (worker *Worker) StartWorker() error {
	defer worker.Close()
	for {
		current := worker.consumer
		var lost error
		select {
		case delivery, ok := <-current.rmq.getDeliveriesCh():
			if ok {
				worker.dispatch(current, delivery)
				continue
			}
			lost = errors.New("deliveries channel closed")
		case rmqErr := <-current.rmq.getRespChanErrorsCh():
			lost = connectionError("response", rmqErr)
		case rmqErr := <-current.rmq.getReqChanErrorsCh():
			lost = connectionError("request", rmqErr)
		}
		worker.fdlLogger.Err(lost).Msg("Lost RMQ connection, reconnecting")
		if err := worker.reconnect(); err != nil {
			return fmt.Errorf("%v, reconnect failed: %w", lost, err)
		}
	}
}

func connectionError(side string, rmqErr *amqp.Error) error {
	if rmqErr == nil {
		return fmt.Errorf("%s connection closed", side)
	}
	return fmt.Errorf("%s connection: %w", side, rmqErr)
}

func (worker *Worker) dispatch(c *consumer, delivery amqp.Delivery) {
	c.inflight.Add(1)
	worker.inflight.Add(1)
	go func() {
		defer worker.inflight.Done()
		defer c.inflight.Done()
		worker.processMessage(&delivery, c.rmq)
	}()
}

// reconnect swaps in a fresh consumer. The previous one is retired in the
// background.
func (worker *Worker) reconnect() error {
	worker.fdlLogger.Info().Msg("Connecting to RMQ")
	client, err := worker.dialRMQ()
	if err != nil {
		worker.fdlLogger.Err(err).Msg("Failed to connect to RMQ")
		return err
	}
	previous := worker.consumer
	worker.consumer = &consumer{rmq: client}
	if previous != nil {
		go previous.retire()
	}
	worker.fdlLogger.Info().Msg("Connected to RMQ")
	return nil
}

// Close waits for every in-flight delivery before releasing the clients.
func (worker *Worker) Close() {
	worker.inflight.Wait()
	worker.consumer.retire()
	worker.redis.close()
	worker.s3.close()
}
