package api

import (
	"text2phenotype.com/hmm/corpus"
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/pipeline"
	"text2phenotype.com/hmm/types"
	"bytes"
	"errors"
	"net/http"
)

// Request tags posted text with a model loaded once at startup.
type Request struct {
	Runner *pipeline.Runner
	Store  *counts.Store
}

// ProcessData answers POST requests whose body is one token per line, with a blank
// line between sentences. categorized=true selects the categorized rare-word classes.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	lines, err := corpus.Read(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd := pipeline.TagViterbi
	if r.URL.Query().Get("categorized") == "true" {
		cmd = pipeline.TagViterbiCategorized
	}
	logger.Info().Str("command", string(cmd)).Int("lines", len(lines)).Msg("Tagging request from API")

	var buf bytes.Buffer
	if err := req.Runner.Run(cmd, lines, req.Store, &buf); err != nil {
		status := statusFor(err)
		logger.Err(err).Int("status", status).Msg("Tagging failed")
		http.Error(w, err.Error(), status)
		return
	}
	_, _ = w.Write(buf.Bytes())
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

func statusFor(err error) int {
	var malformed *corpus.MalformedCorpusError
	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUndefinedLogProbability):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
