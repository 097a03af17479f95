package counts

import (
	"text2phenotype.com/hmm/corpus"
	"text2phenotype.com/hmm/types"
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// FromCorpus counts a tagged training corpus. Each sentence is padded with two start
// tags and one STOP tag; every tag trigram of the padded sequence is counted together
// with its trailing bigram, and the (*, *) context once per sentence. Unigram and
// word/tag counts cover the real tokens only.
func FromCorpus(sentences [][]corpus.TaggedWord) *Store {
	store := newStore()
	for _, sent := range sentences {
		if len(sent) == 0 {
			continue
		}
		tags := make([]string, 0, len(sent)+3)
		tags = append(tags, types.StartTag, types.StartTag)
		for _, tw := range sent {
			tags = append(tags, tw.Tag)
			store.unigrams[tw.Tag]++
			store.wordTags[WordTag{tw.Tag, tw.Word}]++
		}
		tags = append(tags, types.StopTag)

		store.bigrams[Bigram{types.StartTag, types.StartTag}]++
		for i := 2; i < len(tags); i++ {
			store.bigrams[Bigram{tags[i-1], tags[i]}]++
			store.trigrams[Trigram{tags[i-2], tags[i-1], tags[i]}]++
		}
	}
	// counting cannot break the word/tag invariant
	_ = store.seal()

	h := newFingerprint()
	store.eachRecord(func(fields []string) {
		writeFingerprint(h, fields)
	})
	store.fingerprint = h.Sum64()
	return store
}

// WriteTo serialises the store in the counts format: WORDTAG, 1-GRAM, 2-GRAM and
// 3-GRAM records, each group in lexical order.
func (store *Store) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	var err error
	store.eachRecord(func(fields []string) {
		if err != nil {
			return
		}
		var n int
		for i, f := range fields {
			if i > 0 {
				if err = bw.WriteByte(' '); err != nil {
					return
				}
				written++
			}
			n, err = bw.WriteString(f)
			written += int64(n)
			if err != nil {
				return
			}
		}
		if err = bw.WriteByte('\n'); err == nil {
			written++
		}
	})
	if err != nil {
		return written, fmt.Errorf("write counts: %w", err)
	}
	return written, bw.Flush()
}

func (store *Store) eachRecord(fn func(fields []string)) {
	format := func(c float64) string {
		return strconv.FormatFloat(c, 'f', -1, 64)
	}

	wordTags := make([]WordTag, 0, len(store.wordTags))
	for wt := range store.wordTags {
		wordTags = append(wordTags, wt)
	}
	sort.Slice(wordTags, func(i, j int) bool {
		if wordTags[i].Tag != wordTags[j].Tag {
			return wordTags[i].Tag < wordTags[j].Tag
		}
		return wordTags[i].Word < wordTags[j].Word
	})
	for _, wt := range wordTags {
		fn([]string{format(store.wordTags[wt]), KindWordTag, wt.Tag, wt.Word})
	}

	for _, tag := range store.tags {
		fn([]string{format(store.unigrams[tag]), KindUnigram, tag})
	}

	bigrams := make([]Bigram, 0, len(store.bigrams))
	for b := range store.bigrams {
		bigrams = append(bigrams, b)
	}
	sort.Slice(bigrams, func(i, j int) bool {
		if bigrams[i].T2 != bigrams[j].T2 {
			return bigrams[i].T2 < bigrams[j].T2
		}
		return bigrams[i].T1 < bigrams[j].T1
	})
	for _, b := range bigrams {
		fn([]string{format(store.bigrams[b]), KindBigram, b.T2, b.T1})
	}

	trigrams := make([]Trigram, 0, len(store.trigrams))
	for t := range store.trigrams {
		trigrams = append(trigrams, t)
	}
	sort.Slice(trigrams, func(i, j int) bool {
		a, b := trigrams[i], trigrams[j]
		if a.T2 != b.T2 {
			return a.T2 < b.T2
		}
		if a.T1 != b.T1 {
			return a.T1 < b.T1
		}
		return a.T0 < b.T0
	})
	for _, t := range trigrams {
		fn([]string{format(store.trigrams[t]), KindTrigram, t.T2, t.T1, t.T0})
	}
}
