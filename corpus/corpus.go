package corpus

import (
	"text2phenotype.com/hmm/types"
	"text2phenotype.com/hmm/utils"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// MalformedCorpusError reports an input line that does not have the shape the
// current command expects.
type MalformedCorpusError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedCorpusError) Error() string {
	return fmt.Sprintf("malformed corpus line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// Line is one input line split on whitespace. A blank line has no fields and
// marks the end of a sentence.
type Line struct {
	Num    int
	Fields []string
}

func (line Line) Blank() bool {
	return len(line.Fields) == 0
}

func (line Line) text() string {
	return strings.Join(line.Fields, " ")
}

type TaggedWord struct {
	Word string
	Tag  string
}

func Read(r io.Reader) ([]Line, error) {
	scanner := utils.NewLineScanner(r)
	var lines []Line
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		if !utf8.ValidString(text) {
			return nil, &MalformedCorpusError{Line: num, Text: text, Reason: "invalid UTF-8"}
		}
		lines = append(lines, Line{Num: num, Fields: strings.Fields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return lines, nil
}

func ReadFile(filePath string) ([]Line, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return lines, nil
}

// Sentences groups the first field of every non-blank line into sentences.
// Each blank line closes a sentence, so consecutive blank lines produce empty
// sentences; tokens left open at the end of input form a final sentence.
func Sentences(lines []Line) []types.Sentence {
	var sentences []types.Sentence
	var tokens []string
	for _, line := range lines {
		if !line.Blank() {
			tokens = append(tokens, line.Fields[0])
			continue
		}
		sentences = append(sentences, types.Sentence{Index: len(sentences), Tokens: tokens})
		tokens = nil
	}
	if len(tokens) > 0 {
		sentences = append(sentences, types.Sentence{Index: len(sentences), Tokens: tokens, Open: true})
	}
	return sentences
}

func ParseTagged(line Line) (TaggedWord, error) {
	if len(line.Fields) != 2 {
		return TaggedWord{}, &MalformedCorpusError{
			Line:   line.Num,
			Text:   line.text(),
			Reason: fmt.Sprintf("expected `word tag`, got %d fields", len(line.Fields)),
		}
	}
	return TaggedWord{Word: line.Fields[0], Tag: line.Fields[1]}, nil
}

// TaggedSentences reads a `word tag` training corpus. Empty sentences are dropped.
func TaggedSentences(lines []Line) ([][]TaggedWord, error) {
	var sentences [][]TaggedWord
	var current []TaggedWord
	for _, line := range lines {
		if line.Blank() {
			if len(current) > 0 {
				sentences = append(sentences, current)
			}
			current = nil
			continue
		}
		tw, err := ParseTagged(line)
		if err != nil {
			return nil, err
		}
		current = append(current, tw)
	}
	if len(current) > 0 {
		sentences = append(sentences, current)
	}
	return sentences, nil
}

func ParseTrigram(line Line) (t2, t1, t0 string, err error) {
	if len(line.Fields) != 3 {
		return "", "", "", &MalformedCorpusError{
			Line:   line.Num,
			Text:   line.text(),
			Reason: fmt.Sprintf("expected three tags, got %d fields", len(line.Fields)),
		}
	}
	return line.Fields[0], line.Fields[1], line.Fields[2], nil
}
