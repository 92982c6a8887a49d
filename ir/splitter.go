package ir

// Statement is one statement of a script, without its terminating semicolon
type Statement struct {
	Source string
	Tokens []Token
}

// Text returns the statement's source text from its first to its last token
func (s Statement) Text() string {
	if len(s.Tokens) == 0 {
		return ""
	}
	return s.Source[s.Tokens[0].Pos.Offset:s.Tokens[len(s.Tokens)-1].End]
}

// Pos returns the position of the statement's first token
func (s Statement) Pos() Position {
	if len(s.Tokens) == 0 {
		return Position{Line: 1, Column: 1}
	}
	return s.Tokens[0].Pos
}

// SplitStatements splits a script on top-level semicolons. Semicolons inside
// strings, quoted identifiers, dollar-quoted blocks and comments do not split.
// The final statement may omit its semicolon; empty statements are dropped.
func SplitStatements(input string) ([]Statement, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}

	var statements []Statement
	var current []Token
	var open []Token

	flush := func() error {
		if len(open) > 0 {
			unclosed := open[len(open)-1]
			return &ParseError{
				Kind:   ErrUnterminatedStatement,
				Pos:    unclosed.Pos,
				Clause: "(",
				Detail: "parenthesis is never closed",
			}
		}
		if len(current) > 0 {
			statements = append(statements, Statement{Source: input, Tokens: current})
		}
		current = nil
		return nil
	}

	for _, tok := range tokens {
		switch {
		case tok.IsPunct(";") && len(open) == 0:
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		case tok.IsPunct("("):
			open = append(open, tok)
		case tok.IsPunct(")"):
			if len(open) == 0 {
				return nil, &ParseError{
					Kind:   ErrMalformedClause,
					Pos:    tok.Pos,
					Clause: ")",
					Detail: "closing parenthesis without a matching opening one",
				}
			}
			open = open[:len(open)-1]
		}
		current = append(current, tok)
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return statements, nil
}
