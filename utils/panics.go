package utils

import (
	"fmt"
	"runtime/debug"
)

// RecoverWithError turns a panic in the deferring function into its returned error.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("got panic: %v\n%s", rv, debug.Stack())
	}
}
