package pos

import "text2phenotype.com/hmm/types"

// Sequence is the decoding of one sentence. Outcomes[i] is the tag of Tokens[i]
// and Probs[i] the path probability it was recovered from; Prob is the probability
// of the whole tag sequence including the transition to STOP.
type Sequence struct {
	Prob     float64
	Tokens   []string
	Outcomes []string
	Probs    []float64
}

func newSequence(tokens []string) Sequence {
	return Sequence{
		Tokens:   tokens,
		Outcomes: make([]string, len(tokens)),
		Probs:    make([]float64, len(tokens)),
	}
}

func (seq Sequence) Len() int {
	return len(seq.Tokens)
}

func (seq Sequence) Tagged() []types.TaggedToken {
	res := make([]types.TaggedToken, len(seq.Tokens))
	for i, tok := range seq.Tokens {
		res[i] = types.TaggedToken{
			Token: tok,
			Tag:   seq.Outcomes[i],
			Prob:  seq.Probs[i],
		}
	}
	return res
}

func (seq Sequence) LogProb() (float64, error) {
	return types.LogProb(seq.Prob)
}
