package pos

import (
	"text2phenotype.com/hmm/model"
	"text2phenotype.com/hmm/rare"
)

// Baseline tags every token on its own with the tag of highest emission probability.
type Baseline struct {
	model      *model.Model
	classifier rare.Classifier
	abundant   rare.Set
}

func NewBaseline(m *model.Model, abundant rare.Set) *Baseline {
	return &Baseline{
		model:      m,
		classifier: rare.NewClassifier(false),
		abundant:   abundant,
	}
}

// Best scans the tags in order and keeps the first one whose emission probability
// is strictly above the running maximum, which starts at 0. A word no tag emits
// gets the empty tag and probability 0.
func (b *Baseline) Best(word string) (string, float64) {
	bestTag, bestProb := "", 0.0
	for _, tag := range b.model.Tags() {
		if prob := b.model.Emission(word, tag); prob > bestProb {
			bestTag, bestProb = tag, prob
		}
	}
	return bestTag, bestProb
}

func (b *Baseline) Decode(tokens []string) (Sequence, error) {
	seq := newSequence(tokens)
	for i, tok := range tokens {
		seq.Outcomes[i], seq.Probs[i] = b.Best(b.classifier.Classify(tok, b.abundant))
	}
	return seq, nil
}
