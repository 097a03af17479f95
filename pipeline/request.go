package pipeline

import (
	"text2phenotype.com/hmm/corpus"
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/utils"
	"bytes"
)

type Request struct {
	Tid     string  `json:"tid"`
	Command Command `json:"command"`
	Corpus  []byte  `json:"-"`
	Counts  []byte  `json:"-"`
}

type Response struct {
	Output           []byte
	ModelFingerprint uint64
	Err              error
}

// Pipeline runs a request asynchronously; the channel yields one Response and is closed.
type Pipeline func(request Request) <-chan Response

func New(runner *Runner) Pipeline {
	return func(request Request) <-chan Response {
		out := make(chan Response, 1)
		go func() {
			defer close(out)
			out <- runner.Process(request)
		}()
		return out
	}
}

// Process runs one request entirely in memory. Output is only set on success.
func (r *Runner) Process(request Request) (resp Response) {
	defer utils.RecoverWithError(&resp.Err)
	reqLogger := r.fdlLogger.With().
		Str("tid", request.Tid).
		Uint64("corpus_hash", utils.HashBytes(request.Corpus)).
		Logger()

	lines, err := corpus.Read(bytes.NewReader(request.Corpus))
	if err != nil {
		reqLogger.Err(err).Msg("Could not read corpus")
		return Response{Err: err}
	}

	var store *counts.Store
	if request.Command.NeedsCounts() {
		store, err = counts.Build(bytes.NewReader(request.Counts))
		if err != nil {
			reqLogger.Err(err).Msg("Could not build counts")
			return Response{Err: err}
		}
		resp.ModelFingerprint = store.Fingerprint()
	}

	var buf bytes.Buffer
	if err := r.Run(request.Command, lines, store, &buf); err != nil {
		return Response{ModelFingerprint: resp.ModelFingerprint, Err: err}
	}
	resp.Output = buf.Bytes()
	return resp
}
