package api

import (
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/pipeline"
	"text2phenotype.com/hmm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const apiCounts = `6 1-GRAM D
6 1-GRAM N
6 1-GRAM V
6 WORDTAG D the
5 WORDTAG N dog
1 WORDTAG N _CAP_
6 WORDTAG V runs
6 2-GRAM * *
6 3-GRAM * * D
6 2-GRAM * D
6 3-GRAM * D N
6 2-GRAM D N
6 3-GRAM D N V
6 2-GRAM N V
6 3-GRAM N V STOP
`

func newRequest(t *testing.T) *Request {
	store, err := counts.Build(strings.NewReader(apiCounts))
	require.NoError(t, err)
	return &Request{
		Runner: pipeline.NewRunner(types.DefaultRunConfiguration()),
		Store:  store,
	}
}

func post(t *testing.T, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	newRequest(t).ProcessData(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return rec
}

func TestProcessData(t *testing.T) {
	rec := post(t, "/tag", "the\ndog\nruns\n\n")
	assert.Equal(t, http.StatusOK, rec.Code)
	// dog carries 5 of the 6 N emissions
	logProb := types.FormatFloat(math.Log(5.0 / 6))
	assert.Equal(t, "the D "+logProb+"\ndog N "+logProb+"\nruns V "+logProb+"\n\n", rec.Body.String())
}

func TestProcessDataCategorized(t *testing.T) {
	rec := post(t, "/tag?categorized=true", "the\nRex\nruns\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "the D "))
	assert.Contains(t, rec.Body.String(), "\nRex N ")
}

func TestProcessDataZeroProbability(t *testing.T) {
	rec := post(t, "/tag", "the\nRex\nruns\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProcessDataMalformed(t *testing.T) {
	rec := post(t, "/tag", "the\n\xff\xfe\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessDataMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newRequest(t).ProcessData(rec, httptest.NewRequest(http.MethodGet, "/tag", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
