package worker

import (
	"text2phenotype.com/hmm/s3client"
)

type s3Transactions interface {
	saveResultsFile(task *Task, result []byte) error
	getInput(key string) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveResultsFile(task *Task, result []byte) error {
	return wrapper.s3Client.Upload(result, task.resultsKey)
}

func (wrapper *s3ClientWrapper) getInput(key string) ([]byte, error) {
	return wrapper.s3Client.Download(key)
}
