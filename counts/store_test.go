package counts

import (
	"bytes"
	"errors"
	"text2phenotype.com/hmm/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const dogRunCounts = `2 WORDTAG N dog
1 WORDTAG V run
2 1-GRAM N
1 1-GRAM V
1 2-GRAM * *
1 2-GRAM * N
1 2-GRAM N V
1 2-GRAM V STOP
1 3-GRAM * * N
1 3-GRAM * N V
1 3-GRAM N V STOP
`

func TestBuild(t *testing.T) {
	store, err := Build(strings.NewReader(dogRunCounts))
	require.NoError(t, err)

	c, ok := store.Unigram("N")
	assert.True(t, ok)
	assert.Equal(t, 2.0, c)

	c, ok = store.Bigram("N", "V")
	assert.True(t, ok)
	assert.Equal(t, 1.0, c)

	c, ok = store.Trigram("N", "V", "STOP")
	assert.True(t, ok)
	assert.Equal(t, 1.0, c)

	c, ok = store.WordTag("N", "dog")
	assert.True(t, ok)
	assert.Equal(t, 2.0, c)

	_, ok = store.WordTag("V", "dog")
	assert.False(t, ok)
	_, ok = store.Trigram("V", "N", "STOP")
	assert.False(t, ok)

	assert.Equal(t, []string{"N", "V"}, store.Tags())
	assert.Equal(t, []string{"dog", "run"}, store.Words())
	assert.Equal(t, 11, store.Len())
}

func TestBuildAbsentIsNotZero(t *testing.T) {
	store, err := Build(strings.NewReader("0 2-GRAM N N\n1 1-GRAM N\n"))
	require.NoError(t, err)

	c, ok := store.Bigram("N", "N")
	assert.True(t, ok)
	assert.Equal(t, 0.0, c)

	_, ok = store.Bigram("N", "V")
	assert.False(t, ok)
}

func TestBuildUnknownKindIsWordTag(t *testing.T) {
	store, err := Build(strings.NewReader("3 1-GRAM D\n3 WORD D the\n"))
	require.NoError(t, err)
	c, ok := store.WordTag("D", "the")
	assert.True(t, ok)
	assert.Equal(t, 3.0, c)
}

func TestBuildMalformed(t *testing.T) {
	cases := map[string]struct {
		source string
		line   int
	}{
		"unigram arity":   {"2 1-GRAM N V\n", 1},
		"bigram arity":    {"1 1-GRAM N\n\n1 2-GRAM N\n", 3},
		"trigram arity":   {"1 3-GRAM * N\n", 1},
		"wordtag arity":   {"1 WORDTAG N\n", 1},
		"missing kind":    {"7\n", 1},
		"bad count":       {"two 1-GRAM N\n", 1},
		"negative count":  {"-1 1-GRAM N\n", 1},
		"NaN count":       {"NaN 1-GRAM N\n1 WORDTAG N dog\n", 1},
		"Inf count":       {"1 1-GRAM N\n+Inf 2-GRAM * *\n", 2},
		"wordtag too big": {"1 1-GRAM N\n2 WORDTAG N dog\n", 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(strings.NewReader(tc.source))
			var malformed *MalformedCountsError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, tc.line, malformed.Line)
		})
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tags.counts")
	require.NoError(t, os.WriteFile(p, []byte(dogRunCounts), 0o644))

	store, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"N", "V"}, store.Tags())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestFromCorpus(t *testing.T) {
	store := FromCorpus([][]corpus.TaggedWord{
		{{Word: "dog", Tag: "N"}, {Word: "run", Tag: "V"}},
		{{Word: "dog", Tag: "N"}},
		{},
	})

	get := func(c float64, ok bool) float64 {
		t.Helper()
		require.True(t, ok)
		return c
	}
	assert.Equal(t, 2.0, get(store.Unigram("N")))
	assert.Equal(t, 2.0, get(store.WordTag("N", "dog")))
	assert.Equal(t, 2.0, get(store.Bigram("*", "*")))
	assert.Equal(t, 2.0, get(store.Bigram("*", "N")))
	assert.Equal(t, 1.0, get(store.Bigram("N", "STOP")))
	assert.Equal(t, 1.0, get(store.Trigram("*", "N", "STOP")))
	assert.Equal(t, 1.0, get(store.Trigram("N", "V", "STOP")))
	assert.Equal(t, 2.0, get(store.Trigram("*", "*", "N")))

	_, ok := store.Unigram("*")
	assert.False(t, ok)
	_, ok = store.Unigram("STOP")
	assert.False(t, ok)
}

func TestWriteToRoundTrip(t *testing.T) {
	store := FromCorpus([][]corpus.TaggedWord{
		{{Word: "dog", Tag: "N"}, {Word: "run", Tag: "V"}},
	})

	var buf bytes.Buffer
	n, err := store.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, strings.NewReplacer("2 WORDTAG", "1 WORDTAG", "2 1-GRAM", "1 1-GRAM").Replace(dogRunCounts), buf.String())

	reread, err := Build(&buf)
	require.NoError(t, err)
	assert.Equal(t, store.Fingerprint(), reread.Fingerprint())
	assert.Equal(t, store.Tags(), reread.Tags())
}

func TestFingerprintIgnoresBlankLines(t *testing.T) {
	a, err := Build(strings.NewReader(dogRunCounts))
	require.NoError(t, err)
	b, err := Build(strings.NewReader("\n" + strings.ReplaceAll(dogRunCounts, "\n", "\n\n")))
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := Build(strings.NewReader(strings.Replace(dogRunCounts, "2 WORDTAG", "1 WORDTAG", 1)))
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
