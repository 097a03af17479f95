package worker

import (
	"text2phenotype.com/hmm/tasks"
	"fmt"
	"time"
)

type redisTransactions interface {
	getJob(jobID string) (*tasks.JobTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) getJob(jobID string) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.Get(jobID)
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Jobs.Update(task.jobID, func(job *tasks.JobTask) {
		job.Status = tasks.TaskStatusStarted
		job.Attempts += 1
		job.StartedAt = getFormattedNow()
		job.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Jobs.Update(task.jobID, func(job *tasks.JobTask) {
		job.Status = tasks.TaskStatusCanceled
		job.CompletedAt = getFormattedNow()
		job.ErrorMessages = append(job.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	return wrapper.tasksClient.Jobs.Update(task.jobID, func(job *tasks.JobTask) {
		job.Status = tasks.TaskStatusCompletedFailure
		job.CompletedAt = getFormattedNow()
		job.ErrorMessages = append(
			job.ErrorMessages,
			fmt.Sprintf("Job has exceeded retries. (Attempts: %d, max retries: %d )", job.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Jobs.Update(task.jobID, func(job *tasks.JobTask) {
		job.Status = task.status
		job.CompletedAt = getFormattedNow()
		job.ErrorMessages = append(job.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Jobs.Update(task.jobID, func(job *tasks.JobTask) {
		if !job.Status.Complete() {
			job.Status = task.status
		}
		job.CompletedAt = getFormattedNow()
		job.ResultsKey = task.resultsKey
		job.ModelFingerprint = task.fingerprint
	})
}

// failedStatus leaves retryable failures open for another attempt.
func failedStatus(err error) tasks.TaskStatus {
	if permanentFailure(err) {
		return tasks.TaskStatusCompletedFailure
	}
	return tasks.TaskStatusFailed
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
