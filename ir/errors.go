package ir

import (
	"errors"
	"fmt"
)

// Parse error kinds; match with errors.Is
var (
	ErrUnknownObjectType     = errors.New("unknown object type")
	ErrMissingIdentifier     = errors.New("missing identifier")
	ErrUnterminatedStatement = errors.New("unterminated statement")
	ErrMalformedClause       = errors.New("malformed clause")
	ErrUnsupportedStatement  = errors.New("unsupported statement")
)

// Position is a location inside a statement's source text
type Position struct {
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 1-based
	Offset int `json:"offset"` // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ParseError describes why a statement could not be turned into a SchemaObject
type ParseError struct {
	Kind   error
	Origin string
	Pos    Position
	// Clause is the clause or token the parser was looking at
	Clause string
	Detail string
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Clause != "" {
		msg += fmt.Sprintf(" near %q", e.Clause)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	loc := e.Pos.String()
	if e.Origin != "" {
		loc = e.Origin + ":" + loc
	}
	return loc + ": " + msg
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}
