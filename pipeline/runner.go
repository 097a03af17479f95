package pipeline

import (
	"text2phenotype.com/hmm/corpus"
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/logger"
	"text2phenotype.com/hmm/model"
	"text2phenotype.com/hmm/pos"
	"text2phenotype.com/hmm/rare"
	"text2phenotype.com/hmm/types"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"strings"
)

// Runner executes commands over an in-memory corpus.
type Runner struct {
	config    types.RunConfiguration
	fdlLogger zerolog.Logger
}

func NewRunner(config types.RunConfiguration) *Runner {
	return &Runner{
		config:    config,
		fdlLogger: logger.NewLogger("Runner"),
	}
}

func (r *Runner) Config() types.RunConfiguration {
	return r.config
}

// Run writes the output of cmd over lines to w. store may be nil for commands
// that do not need counts.
func (r *Runner) Run(cmd Command, lines []corpus.Line, store *counts.Store, w io.Writer) error {
	if cmd.NeedsCounts() && store == nil {
		return fmt.Errorf("%s needs a counts source", cmd)
	}
	cmdLogger := r.fdlLogger.With().Str("command", string(cmd)).Logger()
	cmdLogger.Info().Int("lines", len(lines)).Msg("Running command")

	var err error
	switch cmd {
	case Normalize, NormalizeCategorized:
		err = r.normalize(lines, rare.NewClassifier(cmd.Categorized()), w)
	case ScoreTrigrams:
		err = r.scoreTrigrams(lines, model.New(store), w)
	case TagBaseline:
		m := model.New(store)
		err = r.tagLines(lines, pos.NewBaseline(m, rare.FromCounts(store)), w)
	case TagViterbi, TagViterbiCategorized:
		m := model.New(store)
		decoder := pos.NewDecoder(m, rare.NewClassifier(cmd.Categorized()), rare.FromCounts(store))
		err = r.tagSentences(corpus.Sentences(lines), decoder, w)
	case Count:
		err = r.count(lines, w)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		cmdLogger.Err(err).Msg("Command failed")
		return err
	}
	cmdLogger.Info().Msg("Command finished")
	return nil
}

// normalize replaces every word seen fewer than AbundanceThreshold times in the
// corpus with its rare symbol; tags and sentence breaks are kept.
func (r *Runner) normalize(lines []corpus.Line, classifier rare.Classifier, w io.Writer) error {
	counter := rare.NewCounter(r.config.AbundanceThreshold)
	tagged := make([]corpus.TaggedWord, len(lines))
	for i, line := range lines {
		if line.Blank() {
			continue
		}
		tw, err := corpus.ParseTagged(line)
		if err != nil {
			return err
		}
		tagged[i] = tw
		counter.Observe(tw.Word)
	}

	abundant := counter.Abundant()
	for i, line := range lines {
		if line.Blank() {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
			continue
		}
		word := classifier.Classify(tagged[i].Word, abundant)
		if _, err := io.WriteString(w, word+" "+tagged[i].Tag+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) scoreTrigrams(lines []corpus.Line, m *model.Model, w io.Writer) error {
	for _, line := range lines {
		if line.Blank() {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
			continue
		}
		t2, t1, t0, err := corpus.ParseTrigram(line)
		if err != nil {
			return err
		}
		if err := r.writeRecord(w, []string{t2, t1, t0}, m.Transition(t2, t1, t0)); err != nil {
			return fmt.Errorf("line %d: %w", line.Num, err)
		}
	}
	return nil
}

// tagLines tags each non-blank line on its own, mirroring the input line by line.
func (r *Runner) tagLines(lines []corpus.Line, tagger pos.Tagger, w io.Writer) error {
	for _, line := range lines {
		if line.Blank() {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
			continue
		}
		seq, err := tagger.Decode(line.Fields[:1])
		if err != nil && !errors.Is(err, types.ErrUndefinedLogProbability) {
			return err
		}
		tagged := seq.Tagged()[0]
		if err := r.writeRecord(w, []string{tagged.Token, tagged.Tag}, tagged.Prob); err != nil {
			return fmt.Errorf("line %d: %w", line.Num, err)
		}
	}
	return nil
}

// tagSentences decodes the sentences in order. A sentence closed by a blank line
// in the input is followed by one in the output.
func (r *Runner) tagSentences(sentences []types.Sentence, tagger pos.Tagger, w io.Writer) error {
	for _, sent := range sentences {
		seq, err := tagger.Decode(sent.Tokens)
		if err != nil {
			if !errors.Is(err, types.ErrUndefinedLogProbability) || r.config.ZeroProbability == types.ZeroProbabilityAbort {
				return fmt.Errorf("sentence %d: %w", sent.Index+1, err)
			}
		}
		for _, tagged := range seq.Tagged() {
			if err := r.writeRecord(w, []string{tagged.Token, tagged.Tag}, tagged.Prob); err != nil {
				return fmt.Errorf("sentence %d: %w", sent.Index+1, err)
			}
		}
		if sent.Open {
			continue
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) count(lines []corpus.Line, w io.Writer) error {
	sentences, err := corpus.TaggedSentences(lines)
	if err != nil {
		return err
	}
	_, err = counts.FromCorpus(sentences).WriteTo(w)
	return err
}

// writeRecord writes fields followed by log(p). A zero p is handled by the
// configured policy.
func (r *Runner) writeRecord(w io.Writer, fields []string, p float64) error {
	record := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if f != "" {
			record = append(record, f)
		}
	}

	logProb, err := types.LogProb(p)
	if err != nil {
		switch r.config.ZeroProbability {
		case types.ZeroProbabilitySkip:
			r.fdlLogger.Warn().Strs("record", record).Msg("Zero probability, writing record without log probability")
		case types.ZeroProbabilityFloor:
			record = append(record, types.FormatFloat(r.config.Floor))
		default:
			return fmt.Errorf("%s: %w", strings.Join(record, " "), err)
		}
	} else {
		record = append(record, types.FormatFloat(logProb))
	}

	_, err = io.WriteString(w, strings.Join(record, " ")+"\n")
	return err
}
