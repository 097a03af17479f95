package pos

import (
	"text2phenotype.com/hmm/model"
	"text2phenotype.com/hmm/rare"
	"text2phenotype.com/hmm/types"
	"fmt"
)

// noTag marks a Pi-table cell for which no predecessor gave a positive probability.
const noTag = -1

type cell struct {
	prob float64
	back int
}

// Decoder finds the most likely tag sequence of a sentence under a trigram HMM.
// A Decoder is read-only after construction and may be shared between goroutines.
type Decoder struct {
	model      *model.Model
	classifier rare.Classifier
	abundant   rare.Set

	states []string
	start  int
	// trans[(w*S+u)*S+v] = q(v|w,u); stop[u*S+v] = q(STOP|u,v)
	trans []float64
	stop  []float64
}

func NewDecoder(m *model.Model, classifier rare.Classifier, abundant rare.Set) *Decoder {
	states := m.StateTags()
	s := len(states)
	d := &Decoder{
		model:      m,
		classifier: classifier,
		abundant:   abundant,
		states:     states,
		start:      s - 1,
		trans:      make([]float64, s*s*s),
		stop:       make([]float64, s*s),
	}
	for w, tw := range states {
		for u, tu := range states {
			for v, tv := range states {
				d.trans[(w*s+u)*s+v] = m.Transition(tw, tu, tv)
			}
			d.stop[w*s+u] = m.Transition(tw, tu, types.StopTag)
		}
	}
	return d
}

func (d *Decoder) Normalize(token string) string {
	return d.classifier.Classify(token, d.abundant)
}

// Decode tags tokens. The Pi-table lives only for the duration of the call.
// When no tag sequence has positive probability the tokens come back untagged
// together with an error wrapping types.ErrUndefinedLogProbability.
func (d *Decoder) Decode(tokens []string) (Sequence, error) {
	n := len(tokens)
	seq := newSequence(tokens)
	if n == 0 {
		return seq, nil
	}

	s := len(d.states)
	pi := make([][]cell, n+1)
	emissions := make([]float64, s)
	for k := 1; k <= n; k++ {
		word := d.Normalize(tokens[k-1])
		for v, tv := range d.states {
			emissions[v] = d.model.Emission(word, tv)
		}

		pi[k] = make([]cell, s*s)
		for u := 0; u < s; u++ {
			for v := 0; v < s; v++ {
				best := cell{back: noTag}
				e := emissions[v]
				if e > 0 {
					for w := 0; w < s; w++ {
						var p float64
						if k == 1 {
							// pi(0,*,*) = 1 is the only populated base case
							if u == d.start && w == d.start {
								p = 1
							}
						} else {
							p = pi[k-1][w*s+u].prob
						}
						prob := p * d.trans[(w*s+u)*s+v] * e
						if prob > best.prob {
							best = cell{prob: prob, back: w}
						}
					}
				}
				pi[k][u*s+v] = best
			}
		}
	}

	bestProb, lastU, lastV := 0.0, noTag, noTag
	for u := 0; u < s; u++ {
		for v := 0; v < s; v++ {
			prob := pi[n][u*s+v].prob * d.stop[u*s+v]
			if prob > bestProb {
				bestProb, lastU, lastV = prob, u, v
			}
		}
	}
	if bestProb == 0 {
		return seq, fmt.Errorf("no tag sequence for sentence of %d tokens: %w", n, types.ErrUndefinedLogProbability)
	}
	seq.Prob = bestProb

	tags := make([]int, n)
	tags[n-1] = lastV
	seq.Probs[n-1] = bestProb
	if n > 1 {
		tags[n-2] = lastU
		seq.Probs[n-2] = bestProb
	}
	// tags and Probs are 0-based: position k lives at index k-1
	for k := n - 2; k >= 1; k-- {
		c := pi[k+2][tags[k]*s+tags[k+1]]
		tags[k-1] = c.back
		seq.Probs[k-1] = c.prob
	}
	for i, t := range tags {
		seq.Outcomes[i] = d.states[t]
	}
	return seq, nil
}
