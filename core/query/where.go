package query

import (
	"strings"
	"unicode"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/schema"
)

// Raw is a caller-written condition. Text must start with the WHERE keyword
// and may reference Args with the dialect's native placeholders, numbered
// from 1.
type Raw struct {
	Text string
	Args []any
}

// Where returns a free-text condition.
//
//	query.Where("WHERE Age > $1 AND Name LIKE $2", 30, "A%")
func Where(text string, args ...any) Raw {
	return Raw{Text: text, Args: args}
}

// Build validates the text and binds Args first, in order. Empty text
// matches every row.
func (r Raw) Build(_ *schema.TypeDescriptor, b *Binder) (string, error) {
	if strings.TrimSpace(r.Text) == "" {
		return "", nil
	}
	cond, err := stripWhere(r.Text)
	if err != nil {
		return "", err
	}
	for _, arg := range r.Args {
		b.Bind(normalizeValue(arg))
	}
	return cond, nil
}

// stripWhere checks that text begins with the WHERE token and returns the
// condition after it.
func stripWhere(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	const keyword = "WHERE"
	if len(trimmed) < len(keyword) || !strings.EqualFold(trimmed[:len(keyword)], keyword) {
		return "", core.NewArgumentError("where", "fragment must start with WHERE: %q", text)
	}
	rest := trimmed[len(keyword):]
	if rest != "" {
		r := rune(rest[0])
		if !unicode.IsSpace(r) && r != '(' {
			return "", core.NewArgumentError("where", "fragment must start with WHERE: %q", text)
		}
	}
	cond := strings.TrimSpace(rest)
	if cond == "" {
		return "", core.NewArgumentError("where", "WHERE has no condition")
	}
	return cond, nil
}

// GuardDelete rejects criteria that could delete every row: no criteria,
// All, a nil or empty Filter, a nil structured filter, and blank, HAVING or
// bare WHERE text. DeleteAll is the explicit path for unconditional deletes.
func GuardDelete(c Criteria) error {
	switch v := c.(type) {
	case nil:
		return &core.ArgumentNullError{Argument: "where"}
	case all:
		return core.NewArgumentError("where", "delete range requires a condition; use DeleteAll to remove every row")
	case Filter:
		if v == nil {
			return &core.ArgumentNullError{Argument: "filter"}
		}
		if len(v) == 0 {
			return core.NewArgumentError("filter", "delete range requires at least one filter entry")
		}
	case *QueryFilter:
		if v == nil {
			return &core.ArgumentNullError{Argument: "filter"}
		}
	case Raw:
		if strings.TrimSpace(v.Text) == "" {
			return core.NewArgumentError("where", "delete range requires a WHERE fragment")
		}
		if _, err := stripWhere(v.Text); err != nil {
			return err
		}
	case *Raw:
		if v == nil {
			return &core.ArgumentNullError{Argument: "where"}
		}
		return GuardDelete(*v)
	}
	return nil
}

// CheckCondition rejects a rendered delete condition that is empty or
// trivially true.
func CheckCondition(cond string) error {
	if strings.TrimSpace(cond) == "" {
		return core.NewArgumentError("where", "condition renders empty and would delete every row")
	}
	if IsTautology(cond) {
		return core.NewArgumentError("where", "condition %q is always true and would delete every row", cond)
	}
	return nil
}

// IsTautology reports whether cond is trivially true, such as 1=1, 'a'='a'
// or TRUE. Top-level OR is true when any branch is; top-level AND only when
// every part is. Parenthesized groups are evaluated the same way.
func IsTautology(cond string) bool {
	cond = unwrapParens(cond)
	if branches := splitTopLevel(cond, "OR"); len(branches) > 1 {
		for _, branch := range branches {
			if IsTautology(branch) {
				return true
			}
		}
		return false
	}
	if parts := splitTopLevel(cond, "AND"); len(parts) > 1 {
		for _, part := range parts {
			if !IsTautology(part) {
				return false
			}
		}
		return true
	}
	return trivialBranch(cond)
}

// unwrapParens strips parentheses that enclose the whole of s.
func unwrapParens(s string) string {
	for {
		s = strings.TrimSpace(s)
		if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' || closingParen(s) != len(s)-1 {
			return s
		}
		s = s[1 : len(s)-1]
	}
}

// closingParen returns the index of the parenthesis closing s[0], or -1.
func closingParen(s string) int {
	depth, quoted := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on the keyword where it appears as a whole word
// outside parentheses and quoted literals.
func splitTopLevel(s, keyword string) []string {
	var parts []string
	depth, quoted, start := 0, false, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && i+len(keyword) <= len(s) &&
			strings.EqualFold(s[i:i+len(keyword)], keyword) &&
			(i == 0 || !isWordByte(s[i-1])) &&
			(i+len(keyword) == len(s) || !isWordByte(s[i+len(keyword)])):
			parts = append(parts, s[start:i])
			start = i + len(keyword)
			i = start - 1
		}
	}
	return append(parts, s[start:])
}

func isWordByte(c byte) bool {
	return c == '_' || c == '"' || c == '`' || c == ']' || c == '[' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func trivialBranch(branch string) bool {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '(' || r == ')' {
			return -1
		}
		return unicode.ToUpper(r)
	}, branch)
	switch s {
	case "TRUE", "1", "NOTFALSE", "NOT0":
		return true
	}
	if strings.Count(s, "=") != 1 {
		return false
	}
	i := strings.IndexByte(s, '=')
	if i == 0 || strings.ContainsAny(s[i-1:i], "<>!") {
		return false
	}
	left, right := s[:i], s[i+1:]
	return left != "" && left == right && !strings.ContainsAny(left, "?$@:")
}
