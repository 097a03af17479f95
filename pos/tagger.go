package pos

// Tagger decodes one sentence at a time.
type Tagger interface {
	Decode(tokens []string) (Sequence, error)
}

var (
	_ Tagger = (*Decoder)(nil)
	_ Tagger = (*Baseline)(nil)
)
