package counts

import "fmt"

// MalformedCountsError reports a counts record that cannot be read as one of
// the 1-GRAM, 2-GRAM, 3-GRAM or WORDTAG kinds.
type MalformedCountsError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedCountsError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed counts record %q: %s", e.Text, e.Reason)
	}
	return fmt.Sprintf("malformed counts record at line %d (%q): %s", e.Line, e.Text, e.Reason)
}
