package counts

import (
	"text2phenotype.com/hmm/logger"
	"text2phenotype.com/hmm/utils"
	"fmt"
	"github.com/twmb/murmur3"
	"hash"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	KindUnigram = "1-GRAM"
	KindBigram  = "2-GRAM"
	KindTrigram = "3-GRAM"
	KindWordTag = "WORDTAG"
)

type Bigram struct {
	T2, T1 string
}

type Trigram struct {
	T2, T1, T0 string
}

type WordTag struct {
	Tag, Word string
}

// Store holds the tag n-gram and word/tag counts of a training corpus.
// It is never modified once built, so one Store may be shared by any number of decoders.
type Store struct {
	unigrams    map[string]float64
	bigrams     map[Bigram]float64
	trigrams    map[Trigram]float64
	wordTags    map[WordTag]float64
	tags        []string
	words       []string
	fingerprint uint64
}

func newStore() *Store {
	return &Store{
		unigrams: make(map[string]float64),
		bigrams:  make(map[Bigram]float64),
		trigrams: make(map[Trigram]float64),
		wordTags: make(map[WordTag]float64),
	}
}

func (store *Store) Unigram(tag string) (float64, bool) {
	c, ok := store.unigrams[tag]
	return c, ok
}

func (store *Store) Bigram(t2, t1 string) (float64, bool) {
	c, ok := store.bigrams[Bigram{t2, t1}]
	return c, ok
}

func (store *Store) Trigram(t2, t1, t0 string) (float64, bool) {
	c, ok := store.trigrams[Trigram{t2, t1, t0}]
	return c, ok
}

func (store *Store) WordTag(tag, word string) (float64, bool) {
	c, ok := store.wordTags[WordTag{tag, word}]
	return c, ok
}

// Tags returns the unigram tags in lexical order. The slice is shared; do not modify it.
func (store *Store) Tags() []string {
	return store.tags
}

// Words returns every word seen in a WORDTAG record, in lexical order.
func (store *Store) Words() []string {
	return store.words
}

// Fingerprint identifies the accepted records of the source the store was built from.
func (store *Store) Fingerprint() uint64 {
	return store.fingerprint
}

func (store *Store) Len() int {
	return len(store.unigrams) + len(store.bigrams) + len(store.trigrams) + len(store.wordTags)
}

func LoadFile(filePath string) (*Store, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	store, err := Build(f)
	if err != nil {
		return nil, fmt.Errorf("load counts from %s: %w", filePath, err)
	}
	return store, nil
}

// Build reads a counts source of whitespace-separated `count KIND field...` records.
func Build(r io.Reader) (*Store, error) {
	fdlLogger := logger.NewLogger("CountStore")

	store := newStore()
	fingerprint := newFingerprint()
	scanner := utils.NewLineScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := store.add(fields); err != nil {
			return nil, &MalformedCountsError{Line: lineNum, Text: line, Reason: err.Error()}
		}
		writeFingerprint(fingerprint, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read counts: %w", err)
	}

	if err := store.seal(); err != nil {
		return nil, err
	}
	store.fingerprint = fingerprint.Sum64()

	fdlLogger.Debug().
		Int("unigrams", len(store.unigrams)).
		Int("bigrams", len(store.bigrams)).
		Int("trigrams", len(store.trigrams)).
		Int("word_tags", len(store.wordTags)).
		Msg("Counts loaded")
	return store, nil
}

func (store *Store) add(fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("expected count and record kind, got %d fields", len(fields))
	}
	count, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("count %q is not a number", fields[0])
	}
	if math.IsNaN(count) || math.IsInf(count, 0) {
		return fmt.Errorf("count %q is not finite", fields[0])
	}
	if count < 0 {
		return fmt.Errorf("count %v is negative", count)
	}

	kind := fields[1]
	switch kind {
	case KindUnigram:
		if err := arity(kind, fields, 3); err != nil {
			return err
		}
		store.unigrams[fields[2]] = count
	case KindBigram:
		if err := arity(kind, fields, 4); err != nil {
			return err
		}
		store.bigrams[Bigram{fields[2], fields[3]}] = count
	case KindTrigram:
		if err := arity(kind, fields, 5); err != nil {
			return err
		}
		store.trigrams[Trigram{fields[2], fields[3], fields[4]}] = count
	default:
		// any other kind is a word/tag record
		if err := arity(kind, fields, 4); err != nil {
			return err
		}
		store.wordTags[WordTag{fields[2], fields[3]}] = count
	}
	return nil
}

func arity(kind string, fields []string, want int) error {
	if len(fields) != want {
		return fmt.Errorf("%s record needs %d fields, got %d", kind, want, len(fields))
	}
	return nil
}

func newFingerprint() hash.Hash64 {
	return murmur3.New64()
}

func writeFingerprint(h hash.Hash64, fields []string) {
	for _, f := range fields {
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{'\n'})
}

// seal checks the word/tag invariant and fixes the tag and word orders.
func (store *Store) seal() error {
	words := make(map[string]bool)
	for wt, count := range store.wordTags {
		if unigram, ok := store.unigrams[wt.Tag]; ok && count > unigram {
			return &MalformedCountsError{
				Text:   strings.Join([]string{KindWordTag, wt.Tag, wt.Word}, " "),
				Reason: fmt.Sprintf("word/tag count %v exceeds 1-GRAM count %v of %s", count, unigram, wt.Tag),
			}
		}
		words[wt.Word] = true
	}

	store.tags = make([]string, 0, len(store.unigrams))
	for tag := range store.unigrams {
		store.tags = append(store.tags, tag)
	}
	sort.Strings(store.tags)

	store.words = make([]string, 0, len(words))
	for w := range words {
		store.words = append(store.words, w)
	}
	sort.Strings(store.words)
	return nil
}
