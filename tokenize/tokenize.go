// Package tokenize turns raw message text into lowercase word tokens.
//
// A word rune is an underscore, a letter or a number, in any script. Every
// other rune separates tokens.
package tokenize

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// maxTokenSize bounds a single token read by Tokens.
const maxTokenSize = 16 * 1024 * 1024

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Normalize replaces every non-word rune in text with a space and lowercases the result.
func Normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		if isWordRune(r) {
			return r
		}

		return ' '
	}, text)

	return strings.ToLower(text)
}

// Tokenize splits text into normalized tokens. Empty fragments are never
// returned; text without any word rune yields nil.
func Tokenize(text string) []string {
	tokens := strings.Fields(Normalize(text))
	if len(tokens) == 0 {
		return nil
	}

	return tokens
}

// ScanTokens is a bufio.SplitFunc that yields the same tokens as Tokenize.
func ScanTokens(data []byte, atEOF bool) (int, []byte, error) {
	// Skip leading separators
	start := 0
	for start < len(data) {
		if !atEOF && !utf8.FullRune(data[start:]) {
			return start, nil, nil
		}

		r, sz := utf8.DecodeRune(data[start:])
		if isWordRune(r) {
			break
		}

		start += sz
	}

	for idx := start; idx < len(data); {
		if !atEOF && !utf8.FullRune(data[idx:]) {
			// Need the rest of the rune before deciding
			return start, nil, nil
		}

		r, sz := utf8.DecodeRune(data[idx:])
		if !isWordRune(r) {
			return idx + sz, bytes.ToLower(data[start:idx]), nil
		}

		idx += sz
	}

	if atEOF && start < len(data) {
		return len(data), bytes.ToLower(data[start:]), nil
	}

	return start, nil, nil
}

// Tokens reads r until EOF and returns its tokens.
func Tokens(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxTokenSize)
	scanner.Split(ScanTokens)

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning tokens")
	}

	return tokens, nil
}
