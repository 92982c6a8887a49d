package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gitsnow/gitsnow/internal/logger"
)

// errSkipStatement marks statements that are valid in a script but define no object
var errSkipStatement = errors.New("statement defines no object")

// Qualifier keywords accepted between CREATE and the object type
var qualifiers = map[string]bool{
	"TRANSIENT": true,
	"TEMP":      true,
	"TEMPORARY": true,
	"VOLATILE":  true,
	"LOCAL":     true,
	"GLOBAL":    true,
	"SECURE":    true,
	"RECURSIVE": true,
}

// NamePart is one dot-separated component of an object reference
type NamePart struct {
	Value  string
	Quoted bool
}

// Normalized returns the part after identifier case folding
func (n NamePart) Normalized() string {
	return NormalizeIdentifier(n.Value, n.Quoted)
}

// ResolveName turns a one to three part reference into a QualifiedName.
// A database qualifier is dropped and an unqualified name takes defaultSchema,
// which must already be normalized. ok is false when the name cannot be resolved.
func ResolveName(parts []NamePart, defaultSchema string) (name QualifiedName, ok bool) {
	switch len(parts) {
	case 1:
		if defaultSchema == "" {
			return QualifiedName{}, false
		}
		return QualifiedName{Schema: defaultSchema, Name: parts[0].Normalized()}, true
	case 2:
		return QualifiedName{Schema: parts[0].Normalized(), Name: parts[1].Normalized()}, true
	case 3:
		return QualifiedName{Schema: parts[1].Normalized(), Name: parts[2].Normalized()}, true
	}
	return QualifiedName{}, false
}

// ReadNameParts consumes a dotted identifier starting at tokens[i] and returns
// its parts with the index of the first token after it.
func ReadNameParts(tokens []Token, i int) ([]NamePart, int) {
	var parts []NamePart
	for i < len(tokens) && tokens[i].IsIdent() {
		parts = append(parts, NamePart{Value: tokens[i].Value, Quoted: tokens[i].Kind == TokenQuotedIdent})
		i++
		if i+1 < len(tokens) && tokens[i].IsPunct(".") && tokens[i+1].IsIdent() {
			i++
			continue
		}
		break
	}
	return parts, i
}

// ParseQualifiedName parses a standalone reference such as "db.schema.name"
func ParseQualifiedName(text, defaultSchema string) (QualifiedName, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return QualifiedName{}, err
	}
	parts, next := ReadNameParts(tokens, 0)
	if len(parts) == 0 || next != len(tokens) {
		return QualifiedName{}, &ParseError{Kind: ErrMissingIdentifier, Clause: text, Detail: "not an object name"}
	}
	name, ok := ResolveName(parts, NormalizeIdentifier(defaultSchema, false))
	if !ok {
		return QualifiedName{}, &ParseError{Kind: ErrMissingIdentifier, Clause: text, Detail: "cannot resolve object name"}
	}
	return name, nil
}

// Parser turns CREATE statements into SchemaObjects
type Parser struct {
	defaultSchema string
	ignoreConfig  *IgnoreConfig
}

// NewParser creates a parser. defaultSchema qualifies bare object names and
// objects matched by ignoreConfig are dropped from parsed scripts.
func NewParser(defaultSchema string, ignoreConfig *IgnoreConfig) *Parser {
	return &Parser{
		defaultSchema: NormalizeIdentifier(defaultSchema, false),
		ignoreConfig:  ignoreConfig,
	}
}

// ParseScript parses every statement of a script. CREATE SCHEMA and USE
// statements are skipped.
func (p *Parser) ParseScript(origin, script string) ([]*SchemaObject, error) {
	statements, err := SplitStatements(script)
	if err != nil {
		return nil, withOrigin(err, origin)
	}

	var objects []*SchemaObject
	for _, stmt := range statements {
		obj, err := p.ParseStatement(origin, stmt)
		if errors.Is(err, errSkipStatement) {
			logger.Get().Debug("Skipping statement", "origin", origin, "position", stmt.Pos().String())
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.ignoreConfig != nil && p.ignoreConfig.ShouldIgnore(obj) {
			logger.Get().Debug("Ignoring object", "object", obj.Key(), "origin", origin)
			continue
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// ParseObject parses text holding exactly one CREATE statement
func ParseObject(text, origin, defaultSchema string) (*SchemaObject, error) {
	objects, err := NewParser(defaultSchema, nil).ParseScript(origin, text)
	if err != nil {
		return nil, err
	}
	if len(objects) != 1 {
		return nil, &ParseError{
			Kind:   ErrUnsupportedStatement,
			Origin: origin,
			Pos:    Position{Line: 1, Column: 1},
			Detail: fmt.Sprintf("expected exactly one CREATE statement, found %d", len(objects)),
		}
	}
	return objects[0], nil
}

// ParseStatement parses a single statement produced by SplitStatements
func (p *Parser) ParseStatement(origin string, stmt Statement) (*SchemaObject, error) {
	c := &cursor{stmt: stmt, origin: origin}

	first := c.peek()
	switch {
	case first.IsWord("USE"):
		return nil, errSkipStatement
	case !first.IsWord("CREATE"):
		return nil, c.fail(ErrUnsupportedStatement, first, "only CREATE statements define objects")
	}
	c.next()

	if c.peek().IsWord("OR") {
		or := c.next()
		if !c.peek().IsWord("REPLACE", "ALTER") {
			return nil, c.fail(ErrMalformedClause, or, "expected OR REPLACE or OR ALTER")
		}
		c.next()
	}

	obj := &SchemaObject{Origin: origin}
	if err := p.parseObjectType(c, obj); err != nil {
		return nil, err
	}

	if c.peek().IsWord("IF") {
		ifTok := c.next()
		if !c.acceptWord("NOT") || !c.acceptWord("EXISTS") {
			return nil, c.fail(ErrMalformedClause, ifTok, "expected IF NOT EXISTS")
		}
	}

	if err := p.parseObjectName(c, obj); err != nil {
		return nil, err
	}

	if c.peek().IsPunct("(") {
		columns, err := c.readColumns()
		if err != nil {
			return nil, err
		}
		obj.Columns = columns
	}

	if err := p.parseClauses(c, obj); err != nil {
		return nil, err
	}

	if c.peek().IsWord("AS") {
		as := c.next()
		if c.done() {
			return nil, c.fail(ErrMalformedClause, as, "missing query after AS")
		}
		obj.Body = c.textFrom(c.peek())
	} else if obj.Type.HasBody() {
		at := c.peek()
		if c.done() {
			at = c.prev()
		}
		return nil, c.fail(ErrMalformedClause, at, fmt.Sprintf("%s requires AS <query>", obj.Type))
	}

	return obj, nil
}

func (p *Parser) parseObjectType(c *cursor, obj *SchemaObject) error {
	var prefix string // DYNAMIC or MATERIALIZED
	for obj.Type == "" {
		tok := c.peek()
		if tok.Kind != TokenWord {
			return c.fail(ErrUnknownObjectType, tok, "missing object type")
		}
		word := strings.ToUpper(tok.Text)
		switch {
		case word == "TABLE" && prefix == "":
			obj.Type = ObjectTypeTable
		case word == "TABLE" && prefix == "DYNAMIC":
			obj.Type = ObjectTypeDynamicTable
		case word == "VIEW" && prefix == "":
			obj.Type = ObjectTypeView
		case word == "VIEW" && prefix == "MATERIALIZED":
			obj.Type = ObjectTypeMaterializedView
		case (word == "DYNAMIC" || word == "MATERIALIZED") && prefix == "":
			prefix = word
		case word == "SCHEMA" && prefix == "":
			return errSkipStatement
		case qualifiers[word] && prefix == "":
			obj.Modifiers = append(obj.Modifiers, word)
		default:
			return c.fail(ErrUnknownObjectType, tok, "")
		}
		c.next()
	}
	return nil
}

func (p *Parser) parseObjectName(c *cursor, obj *SchemaObject) error {
	start := c.peek()
	if !start.IsIdent() || (start.Kind == TokenWord && IsReservedWord(start.Text)) {
		return c.fail(ErrMissingIdentifier, start, "expected object name")
	}

	parts, next := ReadNameParts(c.stmt.Tokens, c.i)
	c.i = next
	if len(parts) > 3 {
		return c.fail(ErrMalformedClause, start, "object name has more than three parts")
	}
	name, ok := ResolveName(parts, p.defaultSchema)
	if !ok {
		return c.fail(ErrMissingIdentifier, start, "object name is not schema-qualified and no default schema applies")
	}
	obj.Name = name
	return nil
}

// parseClauses reads properties up to AS or the end of the statement
func (p *Parser) parseClauses(c *cursor, obj *SchemaObject) error {
	for !c.done() && !c.peek().IsWord("AS") {
		tok := c.peek()
		if tok.Kind != TokenWord {
			return c.fail(ErrMalformedClause, tok, "unexpected token")
		}

		if tok.IsWord("CLONE", "LIKE") {
			c.next()
			source := c.peek()
			parts, next := ReadNameParts(c.stmt.Tokens, c.i)
			if len(parts) == 0 {
				return c.fail(ErrMalformedClause, tok, "missing source object")
			}
			c.i = next
			obj.Properties.Set(Property{Name: tok.Text, Value: c.textBetween(source, c.prev())})
			continue
		}

		words := c.readWords()
		name := strings.ToLower(strings.Join(words, " "))
		if strings.EqualFold(words[len(words)-1], "POLICY") && c.peek().IsIdent() {
			value, err := c.readPolicy()
			if err != nil {
				return err
			}
			obj.Properties.Set(Property{Name: name, Value: value})
			continue
		}
		switch next := c.peek(); {
		case next.IsPunct("="):
			c.next()
			if len(words) > 1 {
				obj.Properties.Set(Property{Name: strings.ToLower(strings.Join(words[:len(words)-1], " "))})
			}
			key := strings.ToLower(words[len(words)-1])
			value, ok := c.readValue()
			if !ok {
				return c.fail(ErrMalformedClause, next, fmt.Sprintf("missing value for %s", key))
			}
			obj.Properties.Set(Property{Name: key, Value: value, Assign: true})
		case next.IsPunct("("):
			open := c.next()
			closing := c.skipGroup()
			obj.Properties.Set(Property{Name: name, Value: c.textBetween(open, closing)})
		case c.done(), next.IsWord("AS"):
			obj.Properties.Set(Property{Name: name})
		default:
			return c.fail(ErrMalformedClause, next, fmt.Sprintf("unexpected token after %s", strings.ToUpper(name)))
		}
	}
	return nil
}

func withOrigin(err error, origin string) error {
	var parseErr *ParseError
	if errors.As(err, &parseErr) && parseErr.Origin == "" {
		parseErr.Origin = origin
	}
	return err
}

// cursor walks the tokens of one statement
type cursor struct {
	stmt   Statement
	origin string
	i      int
}

func (c *cursor) done() bool {
	return c.i >= len(c.stmt.Tokens)
}

func (c *cursor) peek() Token {
	if c.done() {
		if len(c.stmt.Tokens) == 0 {
			return Token{Kind: TokenEOF, Pos: Position{Line: 1, Column: 1}}
		}
		last := c.stmt.Tokens[len(c.stmt.Tokens)-1]
		return Token{Kind: TokenEOF, Pos: last.Pos, End: last.End}
	}
	return c.stmt.Tokens[c.i]
}

func (c *cursor) next() Token {
	tok := c.peek()
	if !c.done() {
		c.i++
	}
	return tok
}

func (c *cursor) prev() Token {
	return c.stmt.Tokens[c.i-1]
}

func (c *cursor) acceptWord(word string) bool {
	if c.peek().IsWord(word) {
		c.i++
		return true
	}
	return false
}

// readWords consumes consecutive unquoted words, stopping before AS and
// after POLICY, whose object name follows
func (c *cursor) readWords() []string {
	var words []string
	for c.peek().Kind == TokenWord && !c.peek().IsWord("AS") {
		word := c.next().Text
		words = append(words, word)
		if strings.EqualFold(word, "POLICY") {
			break
		}
	}
	return words
}

// Keywords that introduce the column group after a policy name, as in
// "ROW ACCESS POLICY p ON (a)" or "JOIN POLICY p ALLOWED JOIN KEYS (a)"
var policyArgs = map[string]bool{
	"ON":      true,
	"ENTITY":  true,
	"ALLOWED": true,
}

// readPolicy consumes a policy name and its optional column group,
// returning the source text unchanged
func (c *cursor) readPolicy() (string, error) {
	start := c.peek()
	parts, next := ReadNameParts(c.stmt.Tokens, c.i)
	if len(parts) > 3 {
		return "", c.fail(ErrMalformedClause, start, "policy name has more than three parts")
	}
	c.i = next

	if tok := c.peek(); tok.Kind == TokenWord && policyArgs[strings.ToUpper(tok.Text)] {
		n := 0
		for c.peekAt(n).Kind == TokenWord && !c.peekAt(n).IsWord("AS") {
			n++
		}
		if !c.peekAt(n).IsPunct("(") {
			return "", c.fail(ErrMalformedClause, tok, "expected a column list")
		}
		c.i += n
		c.next()
		c.skipGroup()
	}
	return c.textBetween(start, c.prev()), nil
}

// skipGroup consumes tokens up to and including the parenthesis closing the
// one just consumed, returning the closing token
func (c *cursor) skipGroup() Token {
	depth := 1
	for !c.done() {
		tok := c.next()
		switch {
		case tok.IsPunct("("):
			depth++
		case tok.IsPunct(")"):
			depth--
			if depth == 0 {
				return tok
			}
		}
	}
	return c.prev()
}

// readColumns consumes a parenthesized column list and splits it on top-level commas
func (c *cursor) readColumns() ([]string, error) {
	open := c.next()
	var columns []string
	var segment []Token
	depth := 0

	flush := func(at Token) error {
		if len(segment) == 0 {
			return c.fail(ErrMalformedClause, at, "empty column definition")
		}
		columns = append(columns, c.textBetween(segment[0], segment[len(segment)-1]))
		segment = nil
		return nil
	}

	for !c.done() {
		tok := c.next()
		switch {
		case tok.IsPunct("("):
			depth++
		case tok.IsPunct(")") && depth == 0:
			if err := flush(tok); err != nil {
				return nil, err
			}
			return columns, nil
		case tok.IsPunct(")"):
			depth--
		case tok.IsPunct(",") && depth == 0:
			if err := flush(tok); err != nil {
				return nil, err
			}
			continue
		}
		segment = append(segment, tok)
	}
	return nil, c.fail(ErrUnterminatedStatement, open, "column list is never closed")
}

// readValue consumes the value of a "name = value" clause
func (c *cursor) readValue() (string, bool) {
	start := c.peek()
	switch {
	case start.IsPunct("("):
		c.next()
		return c.textBetween(start, c.skipGroup()), true
	case (start.IsPunct("-") || start.IsPunct("+")) && c.peekAt(1).Kind == TokenNumber:
		c.next()
		c.next()
	case start.Kind == TokenString, start.Kind == TokenNumber:
		c.next()
	case start.IsIdent() && !start.IsWord("AS"):
		_, next := ReadNameParts(c.stmt.Tokens, c.i)
		c.i = next
	default:
		return "", false
	}
	return c.textBetween(start, c.prev()), true
}

func (c *cursor) peekAt(n int) Token {
	if c.i+n >= len(c.stmt.Tokens) {
		return Token{Kind: TokenEOF}
	}
	return c.stmt.Tokens[c.i+n]
}

func (c *cursor) textBetween(first, last Token) string {
	return c.stmt.Source[first.Pos.Offset:last.End]
}

// textFrom returns the source text from tok to the end of the statement
func (c *cursor) textFrom(tok Token) string {
	last := c.stmt.Tokens[len(c.stmt.Tokens)-1]
	return c.stmt.Source[tok.Pos.Offset:last.End]
}

func (c *cursor) fail(kind error, tok Token, detail string) *ParseError {
	return &ParseError{
		Kind:   kind,
		Origin: c.origin,
		Pos:    tok.Pos,
		Clause: tok.Text,
		Detail: detail,
	}
}
