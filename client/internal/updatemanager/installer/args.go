package installer

import (
	"errors"
	"strings"
)

// EncodeArgs joins args into one string for the upgrade params variable. Arguments with a
// space or a double quote, and empty ones, are quoted with backslash escapes inside the quotes.
func EncodeArgs(args []string) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		if arg != "" && !strings.ContainsAny(arg, ` "`) {
			b.WriteString(arg)
			continue
		}

		b.WriteByte('"')
		for _, r := range arg {
			if r == '"' || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
	}
	return b.String()
}

// DecodeArgs splits a string produced by EncodeArgs. Backslashes outside quotes are
// literal so unquoted windows paths survive.
func DecodeArgs(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quoted  bool
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
			inArg = true
		case !quoted && r == ' ':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}

	if quoted || escaped {
		return nil, errors.New("unterminated quote in arguments")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
