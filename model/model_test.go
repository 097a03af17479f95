package model

import (
	"text2phenotype.com/hmm/corpus"
	"text2phenotype.com/hmm/counts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func buildModel(t *testing.T, source string) *Model {
	t.Helper()
	store, err := counts.Build(strings.NewReader(source))
	require.NoError(t, err)
	return New(store)
}

func TestEmission(t *testing.T) {
	m := buildModel(t, `4 1-GRAM N
3 WORDTAG N dog
1 WORDTAG N cat
0 1-GRAM X
0 WORDTAG X dog
1 WORDTAG Y dog
`)
	assert.Equal(t, 0.75, m.Emission("dog", "N"))
	assert.Equal(t, 0.25, m.Emission("cat", "N"))
	assert.Equal(t, 0.0, m.Emission("run", "N"))
	assert.Equal(t, 0.0, m.Emission("dog", "X"), "zero denominator")
	assert.Equal(t, 0.0, m.Emission("dog", "Y"), "absent denominator")
}

func TestTransition(t *testing.T) {
	m := buildModel(t, `2 2-GRAM * N
1 3-GRAM * N V
1 3-GRAM N V STOP
0 2-GRAM V V
0 3-GRAM V V V
`)
	assert.Equal(t, 0.5, m.Transition("*", "N", "V"))
	assert.Equal(t, 0.0, m.Transition("*", "N", "N"), "absent trigram")
	assert.Equal(t, 0.0, m.Transition("N", "V", "STOP"), "absent bigram")
	assert.Equal(t, 0.0, m.Transition("V", "V", "V"), "zero bigram")
}

func TestStateTags(t *testing.T) {
	m := buildModel(t, "1 1-GRAM V\n1 1-GRAM D\n1 1-GRAM N\n")
	assert.Equal(t, []string{"D", "N", "V"}, m.Tags())
	assert.Equal(t, []string{"D", "N", "V", "*"}, m.StateTags())
}

func TestEmissionSumsToOne(t *testing.T) {
	store := counts.FromCorpus([][]corpus.TaggedWord{
		{{Word: "the", Tag: "D"}, {Word: "dog", Tag: "N"}, {Word: "runs", Tag: "V"}},
		{{Word: "a", Tag: "D"}, {Word: "cat", Tag: "N"}, {Word: "sleeps", Tag: "V"}},
		{{Word: "the", Tag: "D"}, {Word: "run", Tag: "N"}},
		{{Word: "dogs", Tag: "N"}, {Word: "run", Tag: "V"}},
	})
	m := New(store)
	for _, tag := range m.Tags() {
		sum := 0.0
		for _, w := range store.Words() {
			sum += m.Emission(w, tag)
		}
		assert.InDelta(t, 1.0, sum, 1e-9, tag)
	}
}
