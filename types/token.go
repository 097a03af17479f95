package types

const (
	StartTag = "*"
	StopTag  = "STOP"
)

// TaggedToken is one decoded token: the raw text as it appeared in the input,
// the tag assigned to it and the path probability it was scored with.
type TaggedToken struct {
	Token string
	Tag   string
	Prob  float64
}

func (token TaggedToken) LogProb() (float64, error) {
	return LogProb(token.Prob)
}

// Sentence is a blank-line delimited run of input tokens; Index is its position in the input.
// Open is set for a final sentence that no blank line closed.
type Sentence struct {
	Index  int
	Tokens []string
	Open   bool
}

func (sent Sentence) Len() int {
	return len(sent.Tokens)
}
