package metatext

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMetadataParse is returned for text that does not form a valid info block.
var ErrMetadataParse = errors.New("metatext: malformed info text")

type tokenKind uint8

const (
	tokOpen tokenKind = iota
	tokClose
	tokComma
	tokColon
	tokScalar
)

type token struct {
	kind tokenKind
	ch   byte // bracket character for tokOpen/tokClose
	val  Value
}

func (t token) String() string {
	switch t.kind {
	case tokOpen, tokClose:
		return strconv.Quote(string(t.ch))
	case tokComma:
		return `","`
	case tokColon:
		return `"="`
	default:
		return "value " + strconv.Quote(t.val.String())
	}
}

// Parse converts an info block into a Value tree.
//
// The text carries no quoting: items are split on every comma (brackets are
// not tracked), keys and values on '=', and each bare token is typed by
// trying integer, then float, then string. Empty tokens become None and
// true/false (any case) become booleans. Lists whose first element equals
// len-1 have that length prefix removed.
func Parse(text string) (Value, error) {
	toks, err := tokenize(text)
	if err != nil {
		return Value{}, err
	}

	p := &parser{toks: toks}
	v, err := p.parseTop()
	if err != nil {
		return Value{}, err
	}
	return fixup(v), nil
}

// tokenize applies the split/strip/classify pass. Backslashes are kept as
// literal characters.
func tokenize(text string) ([]token, error) {
	text = strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(text)

	var toks []token
	for si, segment := range strings.Split(text, ",") {
		if si > 0 {
			toks = append(toks, token{kind: tokComma})
		}
		for pi, piece := range strings.Split(segment, "=") {
			if pi > 0 {
				toks = append(toks, token{kind: tokColon})
			}

			core := piece
			for len(core) > 0 && (core[0] == '{' || core[0] == '[') {
				toks = append(toks, token{kind: tokOpen, ch: core[0]})
				core = core[1:]
			}
			end := len(core)
			for end > 0 && (core[end-1] == '}' || core[end-1] == ']') {
				end--
			}
			trailing := core[end:]
			core = core[:end]

			val, err := classify(core)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokScalar, val: val})

			for i := 0; i < len(trailing); i++ {
				toks = append(toks, token{kind: tokClose, ch: trailing[i]})
			}
		}
	}
	return toks, nil
}

// classify types one bare token.
func classify(s string) (Value, error) {
	if n, ok := parseInt(s); ok {
		return Int(n), nil
	}
	if f, ok := parseFloat(s); ok {
		return Float(f), nil
	}

	quotedStart := strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'")
	quotedEnd := strings.HasSuffix(s, `"`) || strings.HasSuffix(s, "'")
	if !quotedStart && !quotedEnd {
		switch {
		case s == "":
			return None(), nil
		case strings.EqualFold(s, "true"):
			return Bool(true), nil
		case strings.EqualFold(s, "false"):
			return Bool(false), nil
		}
		return String(s), nil
	}

	// Already quoted in the source.
	if len(s) < 2 || s[0] != s[len(s)-1] {
		return Value{}, fmt.Errorf("%w: unterminated quote in %q", ErrMetadataParse, s)
	}
	inner := s[1 : len(s)-1]
	if strings.IndexByte(inner, s[0]) >= 0 {
		return Value{}, fmt.Errorf("%w: stray quote in %q", ErrMetadataParse, s)
	}
	return String(inner), nil
}

// stripDigitUnderscores removes '_' separators that sit between two digits.
// It reports false when an underscore appears anywhere else.
func stripDigitUnderscores(s string) (string, bool) {
	if strings.IndexByte(s, '_') < 0 {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			b.WriteByte(s[i])
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return b.String(), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseInt accepts what a base-10 int() conversion would: surrounding
// whitespace, an optional sign and digits with single underscores.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	if s == "" {
		return 0, false
	}
	digits, ok := stripDigitUnderscores(s)
	if !ok {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(sign+digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseFloat accepts decimal floats, inf, infinity and nan. Hex forms are
// rejected.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	s, ok := stripDigitUnderscores(s)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

type element struct {
	key    Value
	hasKey bool
	val    Value
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s (token %d)", ErrMetadataParse, fmt.Sprintf(format, args...), p.pos)
}

// parseTop evaluates an unbracketed sequence: key=value pairs form a map,
// a single item is returned as-is, anything else forms a list.
func (p *parser) parseTop() (Value, error) {
	elems, err := p.parseElements(0)
	if err != nil {
		return Value{}, err
	}
	if len(elems) == 1 && !elems[0].hasKey {
		return elems[0].val, nil
	}
	return p.collect(elems, true)
}

// parseElements reads comma separated items until closer (0 means end of
// input). The closing token is consumed.
func (p *parser) parseElements(closer byte) ([]element, error) {
	var elems []element
	for {
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elem := element{val: val}

		if tok, ok := p.peek(); ok && tok.kind == tokColon {
			p.pos++
			if val.kind == KindList || val.kind == KindMap {
				return nil, p.errorf("%s used as key", val.kind)
			}
			elem = element{key: val, hasKey: true}
			if elem.val, err = p.parseValue(); err != nil {
				return nil, err
			}
		}
		elems = append(elems, elem)

		tok, ok := p.peek()
		switch {
		case !ok:
			if closer != 0 {
				return nil, p.errorf("missing %q", string(closer))
			}
			return elems, nil
		case tok.kind == tokComma:
			p.pos++
		case tok.kind == tokClose && tok.ch == closer:
			p.pos++
			return elems, nil
		default:
			return nil, p.errorf("unexpected %s", tok)
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	tok, ok := p.peek()
	if !ok {
		return Value{}, p.errorf("unexpected end of text")
	}
	p.pos++

	switch tok.kind {
	case tokScalar:
		return tok.val, nil
	case tokOpen:
		closer := byte(']')
		if tok.ch == '{' {
			closer = '}'
		}
		elems, err := p.parseElements(closer)
		if err != nil {
			return Value{}, err
		}
		return p.collect(elems, tok.ch == '{')
	default:
		return Value{}, p.errorf("unexpected %s", tok)
	}
}

// collect turns parsed elements into a map (all keyed) or a list (none
// keyed). Keyed elements are only allowed when allowMap is set.
func (p *parser) collect(elems []element, allowMap bool) (Value, error) {
	keyed := 0
	for _, e := range elems {
		if e.hasKey {
			keyed++
		}
	}

	switch {
	case keyed == 0:
		items := make([]Value, len(elems))
		for i, e := range elems {
			items[i] = e.val
		}
		return List(items...), nil
	case keyed == len(elems) && allowMap:
		m := NewMap()
		for _, e := range elems {
			m.Set(e.key.String(), e.val)
		}
		return MapValue(m), nil
	}
	return Value{}, p.errorf("mixed keyed and plain items")
}

// fixup drops redundant length prefixes from every list in the tree.
func fixup(v Value) Value {
	switch v.kind {
	case KindList:
		items := v.list
		if len(items) > 0 {
			if head, ok := items[0].numeric(); ok && head == float64(len(items)-1) {
				items = items[1:]
			}
		}
		out := make([]Value, len(items))
		for i, item := range items {
			out[i] = fixup(item)
		}
		return List(out...)
	case KindMap:
		for _, k := range v.m.keys {
			v.m.values[k] = fixup(v.m.values[k])
		}
	}
	return v
}
