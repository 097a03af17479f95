package pipeline

import (
	"text2phenotype.com/hmm/types"
	"fmt"
)

type Command string

const (
	Normalize             Command = "normalize"
	NormalizeCategorized  Command = "normalizeCategorized"
	ScoreTrigrams         Command = "scoreTrigrams"
	TagBaseline           Command = "tagBaseline"
	TagViterbi            Command = "tagViterbi"
	TagViterbiCategorized Command = "tagViterbiCategorized"
	Count                 Command = "count"
)

var commands = []Command{
	Normalize,
	NormalizeCategorized,
	ScoreTrigrams,
	TagBaseline,
	TagViterbi,
	TagViterbiCategorized,
	Count,
}

func Commands() []Command {
	return append([]Command(nil), commands...)
}

func ParseCommand(name string) (Command, error) {
	for _, cmd := range commands {
		if string(cmd) == name {
			return cmd, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", name)
}

// NeedsCounts reports whether the command reads a counts source besides the corpus.
func (cmd Command) NeedsCounts() bool {
	switch cmd {
	case ScoreTrigrams, TagBaseline, TagViterbi, TagViterbiCategorized:
		return true
	}
	return false
}

// RewritesCorpus is true for the normalize commands, whose output replaces their input.
func (cmd Command) RewritesCorpus() bool {
	return cmd == Normalize || cmd == NormalizeCategorized
}

func (cmd Command) Categorized() bool {
	return cmd == NormalizeCategorized || cmd == TagViterbiCategorized
}

// OutputName is the file a command writes to when no path is given.
// Normalize commands have none: they rewrite the corpus.
func (cmd Command) OutputName(names types.OutputNames) string {
	switch cmd {
	case ScoreTrigrams:
		return names.TrigramEstimates
	case TagBaseline:
		return names.EmissionPredictions
	case TagViterbi, TagViterbiCategorized:
		return names.ViterbiPredictions
	case Count:
		return names.Counts
	}
	return ""
}
