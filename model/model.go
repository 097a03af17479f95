package model

import (
	"text2phenotype.com/hmm/counts"
	"text2phenotype.com/hmm/types"
)

// Model turns the counts of a Store into maximum-likelihood emission and
// trigram transition probabilities.
type Model struct {
	store     *counts.Store
	stateTags []string
}

func New(store *counts.Store) *Model {
	tags := store.Tags()
	stateTags := make([]string, 0, len(tags)+1)
	stateTags = append(stateTags, tags...)
	stateTags = append(stateTags, types.StartTag)
	return &Model{
		store:     store,
		stateTags: stateTags,
	}
}

func (m *Model) Store() *counts.Store {
	return m.store
}

// Tags returns the known tags in lexical order.
func (m *Model) Tags() []string {
	return m.store.Tags()
}

// StateTags is Tags followed by the start tag; the decoder iterates states in this order.
func (m *Model) StateTags() []string {
	return m.stateTags
}

// Emission is e(word|tag) = count(tag, word) / count(tag), or 0 when unobserved.
func (m *Model) Emission(word, tag string) float64 {
	wordTag, ok := m.store.WordTag(tag, word)
	if !ok {
		return 0
	}
	unigram, ok := m.store.Unigram(tag)
	if !ok || unigram == 0 {
		return 0
	}
	return wordTag / unigram
}

// Transition is q(t0|t2,t1) = count(t2, t1, t0) / count(t2, t1), or 0 when either
// count is unobserved.
func (m *Model) Transition(t2, t1, t0 string) float64 {
	bigram, ok := m.store.Bigram(t2, t1)
	if !ok || bigram == 0 {
		return 0
	}
	trigram, ok := m.store.Trigram(t2, t1, t0)
	if !ok {
		return 0
	}
	return trigram / bigram
}
