package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrUndefinedLogProbability = errors.New("log of zero probability is undefined")

type ZeroProbabilityPolicy string

const (
	// ZeroProbabilityAbort fails the run on the first zero-probability record.
	ZeroProbabilityAbort ZeroProbabilityPolicy = "abort"
	// ZeroProbabilitySkip writes the record without its log probability.
	ZeroProbabilitySkip ZeroProbabilityPolicy = "skip"
	// ZeroProbabilityFloor writes the configured floor instead of log(0).
	ZeroProbabilityFloor ZeroProbabilityPolicy = "floor"
)

func (policy ZeroProbabilityPolicy) Valid() bool {
	switch policy {
	case ZeroProbabilityAbort, ZeroProbabilitySkip, ZeroProbabilityFloor:
		return true
	}
	return false
}

func LogProb(p float64) (float64, error) {
	if p <= 0 || math.IsNaN(p) {
		return 0, fmt.Errorf("probability %v: %w", p, ErrUndefinedLogProbability)
	}
	return math.Log(p), nil
}

func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
