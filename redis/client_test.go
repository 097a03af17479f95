package redis

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type partial struct {
	Status   string   `json:"status"`
	Attempts int      `json:"attempts"`
	Messages []string `json:"messages"`
}

func TestMergeUpdateKeepsUnknownFields(t *testing.T) {
	stored := []byte(`{"status":"submitted","attempts":1,"owner":"sequencer","messages":null}`)

	var doc partial
	merged, err := MergeUpdate(stored, &doc, func() {
		doc.Status = "started"
		doc.Attempts++
	})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(merged, &got))
	assert.Equal(t, "started", got["status"])
	assert.Equal(t, float64(2), got["attempts"])
	assert.Equal(t, "sequencer", got["owner"])
}

func TestMergeUpdateNoChange(t *testing.T) {
	stored := []byte(`{"status":"started","attempts":2,"messages":["a"],"extra":{"k":1}}`)

	var doc partial
	merged, err := MergeUpdate(stored, &doc, func() {})
	require.NoError(t, err)
	assert.JSONEq(t, string(stored), string(merged))
}

func TestMergeUpdateInvalidDocument(t *testing.T) {
	var doc partial
	_, err := MergeUpdate([]byte("not json"), &doc, func() {})
	assert.Error(t, err)
}
