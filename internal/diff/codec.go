package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mabhi256/livetree/internal/snapshot"
)

const indentUnit = "  "

var scopeValue = regexp.MustCompile(`^\((\d+)\):$`)

// Encode renders deltas one per line as "kind,id,index,<indent>name,value".
// The indent is two spaces per depth level. Backslashes, commas and line breaks
// inside name and value are escaped with a backslash, as is a leading space of a name.
func Encode(deltas []Delta) string {
	var sb strings.Builder
	for _, d := range deltas {
		sb.WriteString(d.Kind.String())
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(d.Row.ObjectID))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(d.Index))
		sb.WriteByte(',')
		sb.WriteString(strings.Repeat(indentUnit, d.Row.Depth))
		sb.WriteString(escapeName(d.Row.Name))
		sb.WriteByte(',')
		sb.WriteString(escape(d.Row.Value))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func escape(s string) string {
	if !strings.ContainsAny(s, "\\,\n\r") {
		return s
	}

	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case ',':
			sb.WriteString(`\,`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func escapeName(s string) string {
	s = escape(s)
	if strings.HasPrefix(s, " ") {
		return `\` + s
	}
	return s
}

// Decode parses the output of Encode. Scope rows get their child count back from
// their "(N):" value; other rows decode with a zero child count.
func Decode(text string) ([]Delta, error) {
	var deltas []Delta

	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		d, err := decodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		deltas = append(deltas, d)
	}

	return deltas, nil
}

func decodeLine(line string) (Delta, error) {
	fields := splitEscaped(line, 5)
	if len(fields) != 5 {
		return Delta{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}

	var d Delta
	switch fields[0] {
	case "+":
		d.Kind = Insert
	case "-":
		d.Kind = Remove
	case "!":
		d.Kind = Update
	default:
		return Delta{}, fmt.Errorf("unknown delta kind %q", fields[0])
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Delta{}, fmt.Errorf("invalid object id: %w", err)
	}
	index, err := strconv.Atoi(fields[2])
	if err != nil {
		return Delta{}, fmt.Errorf("invalid index: %w", err)
	}

	name := fields[3]
	depth := 0
	for strings.HasPrefix(name, indentUnit) {
		name = name[len(indentUnit):]
		depth++
	}

	d.Index = index
	d.Row = snapshot.Row{
		ObjectID: id,
		Depth:    depth,
		Name:     unescape(name),
		Value:    unescape(fields[4]),
	}
	if m := scopeValue.FindStringSubmatch(d.Row.Value); m != nil {
		d.Row.ChildCount, _ = strconv.Atoi(m[1])
	}
	return d, nil
}

// splitEscaped splits on unescaped commas into at most n fields, keeping escapes.
func splitEscaped(s string, n int) []string {
	var fields []string
	start := 0
	for i := 0; i < len(s) && len(fields) < n-1; i++ {
		switch s[i] {
		case '\\':
			i++
		case ',':
			fields = append(fields, s[start:i])
			start = i + 1
		}
	}
	return append(fields, s[start:])
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}

		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
