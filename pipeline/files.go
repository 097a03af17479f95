package pipeline

import (
	"text2phenotype.com/hmm/corpus"
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/utils"
	"fmt"
	"io"
	"path/filepath"
)

// FileJob names the files of one command run. Output defaults to the command's
// output name inside the corpus directory, or to the corpus itself for normalize.
type FileJob struct {
	Command Command
	Corpus  string
	Counts  string
	Output  string
}

func (job FileJob) OutputPath(r *Runner) string {
	if job.Output != "" {
		return job.Output
	}
	if job.Command.RewritesCorpus() {
		return job.Corpus
	}
	return filepath.Join(filepath.Dir(job.Corpus), job.Command.OutputName(r.config.Outputs))
}

// RunFiles loads the job's inputs and writes its output file. The output appears
// only if the whole command succeeded.
func (r *Runner) RunFiles(job FileJob) error {
	lines, err := corpus.ReadFile(job.Corpus)
	if err != nil {
		return err
	}

	var store *counts.Store
	if job.Command.NeedsCounts() {
		if job.Counts == "" {
			return fmt.Errorf("%s needs a counts file", job.Command)
		}
		store, err = counts.LoadFile(job.Counts)
		if err != nil {
			return err
		}
	}

	out := job.OutputPath(r)
	err = utils.WriteFileAtomic(out, func(w io.Writer) error {
		return r.Run(job.Command, lines, store, w)
	})
	if err != nil {
		return err
	}
	r.fdlLogger.Info().Str("output", out).Msg("Wrote output")
	return nil
}
