package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Delimiter names the column separator of delimited text.
type Delimiter string

const (
	DelimiterTab       Delimiter = "tab"
	DelimiterComma     Delimiter = "comma"
	DelimiterSemicolon Delimiter = "semicolon"
	DelimiterSpaces    Delimiter = "spaces"
	DelimiterAuto      Delimiter = "auto"
)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// ParseDelimiter validates a delimiter name.
func ParseDelimiter(name string) (Delimiter, error) {
	switch d := Delimiter(strings.ToLower(strings.TrimSpace(name))); d {
	case DelimiterTab, DelimiterComma, DelimiterSemicolon, DelimiterSpaces, DelimiterAuto:
		return d, nil
	case "":
		return DelimiterAuto, nil
	default:
		return "", fmt.Errorf("%w: unknown delimiter %q", ErrInvalidOptions, name)
	}
}

// detect picks a concrete delimiter from a sample line.
func (d Delimiter) detect(sample string) Delimiter {
	if d != DelimiterAuto && d != "" {
		return d
	}
	switch {
	case strings.Contains(sample, "\t"):
		return DelimiterTab
	case strings.Contains(sample, ";"):
		return DelimiterSemicolon
	case multiSpace.MatchString(strings.TrimSpace(sample)) && !strings.Contains(sample, ","):
		return DelimiterSpaces
	default:
		return DelimiterComma
	}
}

// split tokenizes one line. Quoted cells follow CSV rules so that a
// comma-delimited export can still carry "1.234,50".
func (d Delimiter) split(line string) ([]string, error) {
	var comma rune
	switch d {
	case DelimiterSpaces:
		return multiSpace.Split(strings.TrimSpace(line), -1), nil
	case DelimiterTab:
		comma = '\t'
	case DelimiterSemicolon:
		comma = ';'
	case DelimiterComma:
		comma = ','
	default:
		return nil, fmt.Errorf("%w: delimiter %q is not concrete", ErrInvalidOptions, d)
	}

	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	cells, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return cells, nil
}
