package worker

import (
	"text2phenotype.com/hmm/pipeline"
	"text2phenotype.com/hmm/tasks"
	"errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"sync"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   pipeline.Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

// fail closes the channel without a response, err is returned in the response.
type pipelineMockConfig struct {
	fail   bool
	err    error
	result []byte
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	status tasks.TaskStatus
	task   *Task
}

type redisMockConfig struct {
	getJob                withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getJob                bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

// deliveries and reqErrors feed StartWorker; closed is closed by close().
type rmqMock struct {
	config     rmqMockConfig
	calls      rmqMockCalls
	done       DoneMessage
	deliveries chan amqp.Delivery
	reqErrors  chan *amqp.Error
	closed     chan struct{}
	closeOnce  sync.Once
}

type rmqMockConfig struct {
	notifyDone          failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	notifyDone          bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config   s3MockConfig
	calls    s3MockCalls
	saved    []byte
	savedKey string
}

// getInput.returnedValue is a map[string][]byte from key to object.
type s3MockConfig struct {
	getInput        withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	getInput        int
	saveResultsFile bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {
	mock.closeOnce.Do(func() {
		if mock.closed != nil {
			close(mock.closed)
		}
	})
}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	if config.fail {
		mock.ppln = func(request pipeline.Request) <-chan pipeline.Response {
			mock.calls.pipeline = true
			ch := make(chan pipeline.Response)
			close(ch)
			return ch
		}
	} else {
		mock.ppln = func(request pipeline.Request) <-chan pipeline.Response {
			mock.calls.pipeline = true
			ch := make(chan pipeline.Response, 1)
			ch <- pipeline.Response{Output: mock.config.result, Err: mock.config.err}
			close(ch)
			return ch
		}
	}
	return &mock
}

func defaultJob() tasks.JobTask {
	return tasks.JobTask{
		Command:   string(pipeline.TagViterbi),
		CorpusKey: "corpus/test.dat",
		CountsKey: "counts/tags.counts",
		Status:    tasks.TaskStatusSubmitted,
	}
}

func (mock *redisMock) getJob(jobID string) (*tasks.JobTask, error) {
	mock.calls.getJob = true
	if mock.config.getJob.fail {
		return nil, errors.New("failed to get job")
	}
	job := defaultJob()
	if value, ok := mock.config.getJob.returnedValue.(tasks.JobTask); ok {
		job = value
	}
	return &job, nil
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update job on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update job on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update job on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	mock.status, mock.task = task.status, task
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update job on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	mock.status, mock.task = task.status, task
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update job on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, fdlLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return mock.deliveries
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return mock.reqErrors
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) notifyDone(task *Task) error {
	mock.calls.notifyDone = true
	mock.done = doneMessage(task)
	if mock.config.notifyDone.fail {
		return errors.New("failed to notify done queue")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getInput(key string) ([]byte, error) {
	mock.calls.getInput++
	if mock.config.getInput.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	if objects, ok := mock.config.getInput.returnedValue.(map[string][]byte); ok {
		if data, found := objects[key]; found {
			return data, nil
		}
		return nil, errors.New("mock: no such key")
	}
	return []byte("some input"), nil
}

func (mock *s3Mock) saveResultsFile(task *Task, result []byte) error {
	mock.calls.saveResultsFile = true
	mock.saved, mock.savedKey = result, task.resultsKey
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
