package tcl

import "fmt"

// Words returns the words and strings of line in order, with braces and
// brackets flattened away. Comments end the line.
func Words(line string) ([]string, error) {
	var words []string
	for _, item := range NewLexer(line).Items() {
		switch item.Type {
		case Word, String:
			words = append(words, item.Val)
		case Comment, EOF:
			return words, nil
		case Error:
			return words, fmt.Errorf("%s", item.Val)
		}
	}
	return words, nil
}

// Depth returns the brace nesting delta of line. Braces inside strings and
// comments do not count. The lowest running depth is returned as well so a
// caller can detect a close before the matching open.
func Depth(line string) (delta, low int, err error) {
	for _, item := range NewLexer(line).Items() {
		switch item.Type {
		case LBrace:
			delta++
		case RBrace:
			delta--
			if delta < low {
				low = delta
			}
		case Error:
			return delta, low, fmt.Errorf("%s", item.Val)
		}
	}
	return delta, low, nil
}

// Strings returns only the double-quoted strings of line.
func Strings(line string) (strs []string) {
	for _, item := range NewLexer(line).Items() {
		if item.Type == String {
			strs = append(strs, item.Val)
		}
	}
	return
}
