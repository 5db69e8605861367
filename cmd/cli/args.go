package main

import (
	"errors"
	"strconv"
	"strings"
)

var errUnbalancedQuotes = errors.New("invalid argument(s): unbalanced quotes")

// splitArgs splits a line into words. Double quoted words may contain spaces and
// Go escape sequences, single quoted words are taken literally
func splitArgs(line string) ([]string, error) {
	var args []string

	for {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			return args, nil
		}

		switch line[0] {
		case '"':
			end := closingQuote(line)
			if end < 0 {
				return nil, errUnbalancedQuotes
			}
			word, err := strconv.Unquote(line[:end+1])
			if err != nil {
				return nil, errUnbalancedQuotes
			}
			args = append(args, word)
			line = line[end+1:]
		case '\'':
			end := strings.IndexByte(line[1:], '\'')
			if end < 0 {
				return nil, errUnbalancedQuotes
			}
			args = append(args, line[1:end+1])
			line = line[end+2:]
		default:
			end := strings.IndexAny(line, " \t")
			if end < 0 {
				end = len(line)
			}
			args = append(args, line[:end])
			line = line[end:]
			continue
		}

		// a closing quote must be followed by a space or the end of the line
		if line != "" && line[0] != ' ' && line[0] != '\t' {
			return nil, errUnbalancedQuotes
		}
	}
}

// closingQuote returns the index of the quote ending the double quoted word at
// the start of s, or -1
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
