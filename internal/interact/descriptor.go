package interact

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

// Kind tags how a TargetDescriptor identifies its element.
type Kind string

const (
	// KindAttribute matches on a single attribute condition.
	KindAttribute Kind = "attribute"
	// KindText matches on an element's own normalized text.
	KindText Kind = "text"
	// KindPath matches a structural CSS path.
	KindPath Kind = "path"
)

// TargetDescriptor describes one element to act on. Keeping the match kinds
// enumerable (instead of free-form selector strings) lets the fallback chain
// be tested without a browser behind it.
type TargetDescriptor struct {
	Kind  Kind
	Value string
}

// Attr builds an attribute descriptor. Value is a bare attribute name or a
// name/operator/value expression: "id=dismiss-button", "id^=dismiss",
// "style*=z-index", "class~=overlay".
func Attr(value string) TargetDescriptor {
	return TargetDescriptor{Kind: KindAttribute, Value: value}
}

// Text builds a descriptor matching an element whose own text, whitespace
// collapsed, equals value.
func Text(value string) TargetDescriptor {
	return TargetDescriptor{Kind: KindText, Value: value}
}

// Path builds a structural descriptor from a CSS path such as
// "div.btn:nth-child(1)" or `div[style*="z-index"] .close`.
func Path(value string) TargetDescriptor {
	return TargetDescriptor{Kind: KindPath, Value: value}
}

func (d TargetDescriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.Kind, d.Value)
}

// Query is one concrete, backend-addressable form of a descriptor.
type Query struct {
	By   browser.By
	Expr string
}

// Queries compiles the descriptor into its addressable forms, most specific
// language first. CSS comes before XPath where both exist: the CDP backend
// resolves it natively, and backends that cannot answer a form report
// ErrSelectorUnsupported so callers just move to the next one.
func (d TargetDescriptor) Queries() []Query {
	switch d.Kind {
	case KindAttribute:
		name, op, val := splitAttrExpr(d.Value)
		return []Query{
			{By: browser.ByCSS, Expr: attrCSS(name, op, val)},
			{By: browser.ByXPath, Expr: "//*" + attrPredicate(name, op, val)},
		}
	case KindText:
		return []Query{
			{By: browser.ByXPath, Expr: fmt.Sprintf("//*[self::a or self::button or self::div or self::span or self::i or self::p][normalize-space(text()) = %s]", xpathString(d.Value))},
		}
	case KindPath:
		queries := []Query{{By: browser.ByCSS, Expr: d.Value}}
		if xp, err := pathToXPath(d.Value); err == nil {
			queries = append(queries, Query{By: browser.ByXPath, Expr: xp})
		}
		return queries
	default:
		return nil
	}
}

// splitAttrExpr breaks "name<op>value" at the first operator. A bare name is
// a presence test.
func splitAttrExpr(expr string) (name, op, val string) {
	for _, candidate := range []string{"^=", "*=", "~=", "="} {
		if i := strings.Index(expr, candidate); i >= 0 {
			return expr[:i], candidate, expr[i+len(candidate):]
		}
	}
	return expr, "", ""
}

func attrCSS(name, op, val string) string {
	if op == "" {
		return fmt.Sprintf("[%s]", name)
	}
	return fmt.Sprintf("[%s%s%q]", name, op, val)
}

// attrPredicate renders one XPath predicate for an attribute condition.
func attrPredicate(name, op, val string) string {
	attr := "@" + name
	switch op {
	case "":
		return fmt.Sprintf("[%s]", attr)
	case "^=":
		return fmt.Sprintf("[starts-with(%s, %s)]", attr, xpathString(val))
	case "*=":
		return fmt.Sprintf("[contains(%s, %s)]", attr, xpathString(val))
	case "~=":
		return fmt.Sprintf("[contains(concat(' ', normalize-space(%s), ' '), %s)]", attr, xpathString(" "+val+" "))
	default:
		return fmt.Sprintf("[%s = %s]", attr, xpathString(val))
	}
}

// pathToXPath translates the bounded CSS grammar the step catalogs use:
// tag, #id, .class, [attr], [attr=v], [attr^=v], [attr*=v], [attr~=v],
// :nth-child(n), :nth-of-type(n), descendant and > combinators. Anything
// outside that fails, and the descriptor keeps its CSS form only.
func pathToXPath(path string) (string, error) {
	segments, combinators, err := splitPath(path)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i, seg := range segments {
		axis := "//"
		if i > 0 && combinators[i-1] == '>' {
			axis = "/"
		}
		step, err := segmentToXPath(seg)
		if err != nil {
			return "", err
		}
		sb.WriteString(axis)
		sb.WriteString(step)
	}
	return sb.String(), nil
}

// splitPath divides a selector into compound segments, tracking bracket and
// quote state so attribute values may contain spaces.
func splitPath(path string) ([]string, []byte, error) {
	var segments []string
	var combinators []byte
	var current strings.Builder
	depth := 0
	var quote byte
	pendingChild := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		segments = append(segments, current.String())
		current.Reset()
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case quote != 0:
			current.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			current.WriteByte(c)
		case c == '[':
			depth++
			current.WriteByte(c)
		case c == ']':
			depth--
			current.WriteByte(c)
		case depth == 0 && (c == ' ' || c == '\t'):
			flush()
		case depth == 0 && c == '>':
			flush()
			if len(segments) == 0 {
				return nil, nil, fmt.Errorf("selector %q starts with a combinator", path)
			}
			pendingChild = true
		default:
			if current.Len() == 0 && len(segments) > 0 {
				if pendingChild {
					combinators = append(combinators, '>')
					pendingChild = false
				} else {
					combinators = append(combinators, ' ')
				}
			}
			current.WriteByte(c)
		}
	}
	flush()

	if quote != 0 || depth != 0 {
		return nil, nil, fmt.Errorf("unbalanced selector %q", path)
	}
	if len(segments) == 0 {
		return nil, nil, fmt.Errorf("empty selector")
	}
	if pendingChild {
		return nil, nil, fmt.Errorf("selector %q ends with a combinator", path)
	}
	if len(combinators) != len(segments)-1 {
		return nil, nil, fmt.Errorf("malformed selector %q", path)
	}
	return segments, combinators, nil
}

// segmentToXPath compiles one compound selector into a node test plus
// predicates. A positional :nth-of-type predicate must come first so later
// conditions filter the positional pick the way CSS does.
func segmentToXPath(seg string) (string, error) {
	tag := "*"
	i := 0
	for i < len(seg) && isNameByte(seg[i]) {
		i++
	}
	if i > 0 {
		tag = seg[:i]
	} else if i < len(seg) && seg[i] == '*' {
		i++
	}

	var position string
	var predicates []string
	for i < len(seg) {
		switch seg[i] {
		case '#':
			name, next := readName(seg, i+1)
			if name == "" {
				return "", fmt.Errorf("bad id in segment %q", seg)
			}
			predicates = append(predicates, fmt.Sprintf("[@id = %s]", xpathString(name)))
			i = next
		case '.':
			name, next := readName(seg, i+1)
			if name == "" {
				return "", fmt.Errorf("bad class in segment %q", seg)
			}
			predicates = append(predicates, attrPredicate("class", "~=", name))
			i = next
		case '[':
			end := matchingBracket(seg, i)
			if end < 0 {
				return "", fmt.Errorf("unterminated attribute in segment %q", seg)
			}
			name, op, val := splitAttrExpr(seg[i+1 : end])
			predicates = append(predicates, attrPredicate(name, op, strings.Trim(val, `"'`)))
			i = end + 1
		case ':':
			name, next := readName(seg, i+1)
			args := ""
			if next < len(seg) && seg[next] == '(' {
				close := strings.IndexByte(seg[next:], ')')
				if close < 0 {
					return "", fmt.Errorf("unterminated pseudo-class in segment %q", seg)
				}
				args = seg[next+1 : next+close]
				next += close + 1
			}
			switch name {
			case "nth-child":
				predicates = append(predicates, fmt.Sprintf("[count(preceding-sibling::*) = %s - 1]", strings.TrimSpace(args)))
			case "nth-of-type":
				position = fmt.Sprintf("[%s]", strings.TrimSpace(args))
			case "first-child":
				predicates = append(predicates, "[count(preceding-sibling::*) = 0]")
			default:
				return "", fmt.Errorf("unsupported pseudo-class %q", name)
			}
			i = next
		default:
			return "", fmt.Errorf("unexpected %q in segment %q", seg[i], seg)
		}
	}
	return tag + position + strings.Join(predicates, ""), nil
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func readName(s string, start int) (string, int) {
	i := start
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	return s[start:i], i
}

// matchingBracket finds the ] closing the [ at open, skipping quoted runs.
func matchingBracket(s string, open int) int {
	var quote byte
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ']':
			return i
		}
	}
	return -1
}

// xpathString renders s as an XPath 1.0 string literal. There is no escape
// syntax, so a value holding both quote kinds needs a concat() build.
func xpathString(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	var sb strings.Builder
	sb.WriteString("concat(")
	for i, part := range strings.Split(s, `'`) {
		if i > 0 {
			sb.WriteString(`, "'", `)
		}
		sb.WriteString("'" + part + "'")
	}
	sb.WriteString(")")
	return sb.String()
}
