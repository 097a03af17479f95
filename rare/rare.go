package rare

import (
	"regexp"
)

const (
	RareSymbol = "_RARE_"
	NumSymbol  = "_NUM_"
	DotSymbol  = "_DOT_"
	CapsSymbol = "_CAPS_"
	CapSymbol  = "_CAP_"
	PunSymbol  = "_PUN_"
	NormSymbol = "_NORM_"
)

type Symbol struct {
	Pattern *regexp.Regexp
	Name    string
}

// Table lists rare-word categories in ascending precedence: when several
// patterns match, the one listed last wins.
type Table []Symbol

var (
	// Plain maps every rare token to RareSymbol.
	Plain = Table{}

	// Categorized precedence, highest first: NUM, DOT, CAPS, CAP, PUN, NORM.
	//   NUM   digit runs, each optionally bounded by one of $ . , / : -
	//   DOT   anything ending in '.'
	//   CAPS  uppercase letters only
	//   CAP   one uppercase letter followed by lowercase letters
	//   PUN   letters with at least one hyphen or apostrophe
	//   NORM  lowercase letters only
	Categorized = Table{
		{regexp.MustCompile(`^[a-z]+$`), NormSymbol},
		{regexp.MustCompile(`^(([a-zA-Z]*[-'][a-zA-Z]+)|([a-zA-Z]+[-'][a-zA-Z]*))+$`), PunSymbol},
		{regexp.MustCompile(`^[A-Z][a-z]+$`), CapSymbol},
		{regexp.MustCompile(`^[A-Z]+$`), CapsSymbol},
		{regexp.MustCompile(`^.+\.$`), DotSymbol},
		{regexp.MustCompile(`^([$.,/:-]?\d+[$.,/:-]?)+$`), NumSymbol},
	}

	symbols = map[string]bool{
		RareSymbol: true,
		NumSymbol:  true,
		DotSymbol:  true,
		CapsSymbol: true,
		CapSymbol:  true,
		PunSymbol:  true,
		NormSymbol: true,
	}
)

// IsSymbol reports whether token is one of the rare-word category symbols.
func IsSymbol(token string) bool {
	return symbols[token]
}

// Match returns the highest-precedence symbol whose pattern matches token.
func (table Table) Match(token string) (string, bool) {
	name, found := "", false
	for _, sym := range table {
		if sym.Pattern.MatchString(token) {
			name, found = sym.Name, true
		}
	}
	return name, found
}

type Classifier struct {
	Table Table
}

func NewClassifier(categorized bool) Classifier {
	if categorized {
		return Classifier{Table: Categorized}
	}
	return Classifier{Table: Plain}
}

// Classify normalizes a raw token: abundant tokens and rare symbols are kept,
// everything else becomes its category symbol or RareSymbol.
func (c Classifier) Classify(token string, abundant Set) string {
	if abundant.Contains(token) || IsSymbol(token) {
		return token
	}
	if name, ok := c.Table.Match(token); ok {
		return name
	}
	return RareSymbol
}
