package utils

import (
	"bufio"
	"github.com/twmb/murmur3"
	"io"
)

// maxLineSize bounds a single corpus or counts line.
const maxLineSize = 1024 * 1024

// HashBytes is the murmur3 64-bit hash of the concatenation of bytes.
func HashBytes(bytes ...[]byte) uint64 {
	hash := murmur3.New64()
	for _, b := range bytes {
		_, err := hash.Write(b)
		if err != nil {
			panic(err)
		}
	}
	return hash.Sum64()
}

func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}
