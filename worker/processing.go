package worker

import (
	"text2phenotype.com/hmm/corpus"
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/pipeline"
	"text2phenotype.com/hmm/tasks"
	"text2phenotype.com/hmm/types"
	"text2phenotype.com/hmm/utils"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"path"
)

type Message struct {
	JobID  string `json:"job_id"`
	Sender string `json:"sender,omitempty"`
}

// DoneMessage is published for every job message the worker settles.
type DoneMessage struct {
	JobID      string           `json:"job_id"`
	Status     tasks.TaskStatus `json:"status"`
	ResultsKey string           `json:"results_key,omitempty"`
	Sender     string           `json:"sender"`
}

type Task struct {
	delivery    *amqp.Delivery
	job         *tasks.JobTask
	message     *Message
	jobID       string
	status      tasks.TaskStatus
	resultsKey  string
	fingerprint uint64
	fdlLogger   *zerolog.Logger
}

// processMessage runs the job named by delivery and settles the delivery through
// mq, the client it was consumed from.
func (worker *Worker) processMessage(delivery *amqp.Delivery, mq rmqTransactions) {
	rejectLogger := worker.fdlLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(delivery)
	if err != nil {
		rejectLogger.Err(err).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		mq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		mq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = mq.notifyDone(task); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while sending message to done queue")
		mq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = mq.acknowledgeDelivery(delivery); err != nil {
		task.fdlLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.fdlLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	if message.JobID == "" {
		return nil, errors.New("message has no job_id")
	}
	job, err := worker.redis.getJob(message.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job for message, got error %w", err)
	}
	taskLogger := worker.fdlLogger.With().Str("tid", message.JobID).Logger()
	task := Task{
		delivery:  delivery,
		job:       job,
		jobID:     message.JobID,
		message:   &message,
		fdlLogger: &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.fdlLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.fdlLogger.Err(err).Msg("Failed to update job")
		return fmt.Errorf("failed to update job: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while running pipeline")
		task.status = failedStatus(err)
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	task.status = tasks.TaskStatusCompletedSuccess
	task.fdlLogger.Info().Msg("Saved results, marking job as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while trying to mark job as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.fdlLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.job.Attempts)

	cmd, err := pipeline.ParseCommand(task.job.Command)
	if err != nil {
		return err
	}
	request := pipeline.Request{Tid: task.jobID, Command: cmd}
	if request.Corpus, err = worker.s3.getInput(task.job.CorpusKey); err != nil {
		task.fdlLogger.Err(err).Caller().Msg("Could not fetch corpus from s3")
		return fmt.Errorf("failed fetch corpus from s3: %w", err)
	}
	if cmd.NeedsCounts() {
		if task.job.CountsKey == "" {
			return fmt.Errorf("%s needs counts_key", cmd)
		}
		if request.Counts, err = worker.s3.getInput(task.job.CountsKey); err != nil {
			task.fdlLogger.Err(err).Caller().Msg("Could not fetch counts from s3")
			return fmt.Errorf("failed fetch counts from s3: %w", err)
		}
	}

	result, ok := <-worker.ppln(request)
	if !ok {
		task.fdlLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return errors.New("pipeline channel was closed before returning anything")
	}
	if result.Err != nil {
		return result.Err
	}
	task.fingerprint = result.ModelFingerprint
	task.resultsKey = worker.resultsKey(task, cmd)
	task.fdlLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(task, result.Output); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskLogger := task.fdlLogger

	if task.job.Status.Complete() {
		taskLogger.Info().Msg("Job is already done. (might indicate issue acking message with RMQ). Notifying done queue.")
		task.status = task.job.Status
		task.resultsKey = task.job.ResultsKey
		return false, nil
	}
	if task.job.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform it. Notifying done queue.")
		task.status = tasks.TaskStatusCanceled
		err := worker.redis.onTaskCancelled(task)
		return false, err
	}
	if task.job.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Job has exceeded retries. Notifying done queue.")
		task.status = tasks.TaskStatusCompletedFailure
		err := worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}

// resultsKey is results/<job id>/<output name>; normalize jobs keep the corpus file name.
func (worker *Worker) resultsKey(task *Task, cmd pipeline.Command) string {
	name := cmd.OutputName(worker.outputs)
	if name == "" {
		name = path.Base(task.job.CorpusKey)
	}
	return path.Join("results", task.jobID, name)
}

// permanentFailure reports errors a retry cannot fix: bad input or a corpus the
// model gives zero probability.
func permanentFailure(err error) bool {
	var malformedCounts *counts.MalformedCountsError
	var malformedCorpus *corpus.MalformedCorpusError
	return errors.As(err, &malformedCounts) ||
		errors.As(err, &malformedCorpus) ||
		errors.Is(err, types.ErrUndefinedLogProbability)
}
