package tasks

import (
	"text2phenotype.com/hmm/redis"
)

const JobsDB redis.DB = 1

type TaskStatus string

const (
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

// JobTask is the Redis document describing one tagging job. CountsKey is empty
// for commands that only read the corpus.
type JobTask struct {
	Command          string     `json:"command"`
	CorpusKey        string     `json:"corpus_key"`
	CountsKey        string     `json:"counts_key"`
	UserCanceled     bool       `json:"user_canceled"`
	Status           TaskStatus `json:"status"`
	Attempts         int        `json:"attempts"`
	ResultsKey       string     `json:"results_key"`
	ModelFingerprint uint64     `json:"model_fingerprint"`
	ErrorMessages    []string   `json:"error_messages"`
	StartedAt        *string    `json:"started_at"`
	CompletedAt      *string    `json:"completed_at"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) Get(jobID string) (*JobTask, error) {
	var task JobTask
	if err := tasks.client.GetDocument(jobID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks JobTasks) Update(jobID string, updateFunc func(task *JobTask)) error {
	var task JobTask
	return tasks.client.UpdateDocument(jobID, &task, func() {
		updateFunc(&task)
	})
}
