// Package lineage finds the relations a schema object reads from.
package lineage

import (
	"sort"

	"github.com/gitsnow/gitsnow/ir"
)

// Functions whose parenthesized arguments use FROM without naming a relation
var nonRelationFuncs = []string{"EXTRACT", "TRIM", "SUBSTRING", "SUBSTR", "POSITION", "OVERLAY"}

// Keywords that may follow a table reference and therefore never act as its alias
var clauseKeywords = map[string]bool{
	"AND": true, "ASOF": true, "AT": true, "BEFORE": true, "CHANGES": true,
	"CONNECT": true, "CROSS": true, "EXCEPT": true, "FETCH": true, "FROM": true,
	"FULL": true, "GROUP": true, "HAVING": true, "INNER": true, "INTERSECT": true,
	"JOIN": true, "LATERAL": true, "LEFT": true, "LIMIT": true, "MATCH_RECOGNIZE": true,
	"MINUS": true, "NATURAL": true, "OFFSET": true, "ON": true, "OR": true,
	"ORDER": true, "OUTER": true, "PIVOT": true, "QUALIFY": true, "RIGHT": true,
	"SAMPLE": true, "SELECT": true, "START": true, "TABLESAMPLE": true, "UNION": true,
	"UNPIVOT": true, "USING": true, "VALUES": true, "WHERE": true, "WINDOW": true,
	"WITH": true,
}

// Sources returns the objects obj reads from: relations named in its query
// and the source of a CLONE or LIKE clause. Unqualified references resolve to
// the object's own schema. The object itself may appear in the result.
func Sources(obj *ir.SchemaObject) ([]ir.QualifiedName, error) {
	found := make(map[ir.QualifiedName]bool)

	if obj.Body != "" {
		names, err := ExtractSources(obj.Body, obj.Name.Schema)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			found[name] = true
		}
	}

	for _, clause := range []string{"clone", "like"} {
		value, ok := obj.Properties.Get(clause)
		if !ok {
			continue
		}
		name, err := ir.ParseQualifiedName(value, obj.Name.Schema)
		if err != nil {
			return nil, err
		}
		found[name] = true
	}

	return sortedNames(found), nil
}

// Keywords that end a FROM list at the level they appear on
var fromListEnd = map[string]bool{
	"CONNECT": true, "EXCEPT": true, "FETCH": true, "GROUP": true, "HAVING": true,
	"INTERSECT": true, "LIMIT": true, "MINUS": true, "OFFSET": true, "ORDER": true,
	"QUALIFY": true, "SELECT": true, "START": true, "UNION": true, "WHERE": true,
	"WINDOW": true,
}

// ExtractSources scans a query for relations referenced after FROM and JOIN.
// defaultSchema must be normalized. CTE names, subqueries, table functions
// and stages are not relations.
func ExtractSources(query, defaultSchema string) ([]ir.QualifiedName, error) {
	tokens, err := ir.Tokenize(query)
	if err != nil {
		return nil, err
	}

	e := &sourceExtractor{
		tokens:        tokens,
		defaultSchema: defaultSchema,
		ctes:          collectCTENames(tokens),
		sources:       make(map[ir.QualifiedName]bool),
		pendingFunc:   -1,
		pendingGroup:  -1,
	}
	e.extract()
	return sortedNames(e.sources), nil
}

type parenKind int

const (
	parenOther parenKind = iota
	parenNonRelation
	// subquery, parenthesized join or table function standing as a FROM item
	parenFromItem
)

// frame is the scan state of one parenthesis level
type frame struct {
	kind parenKind
	// inFrom is set from FROM up to the keyword ending the FROM list, so a
	// comma on this level starts another FROM item
	inFrom bool
}

type sourceExtractor struct {
	tokens        []ir.Token
	defaultSchema string
	ctes          map[string]bool
	sources       map[ir.QualifiedName]bool
	// index of the "(" holding a table function's arguments
	pendingFunc int
	// index of a "(" standing as a FROM item: a subquery or a parenthesized join
	pendingGroup int
}

func (e *sourceExtractor) extract() {
	stack := []frame{{kind: parenOther}}
	toks := e.tokens

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		top := &stack[len(stack)-1]
		switch {
		case tok.IsPunct("("):
			f := frame{kind: parenOther}
			switch {
			case i == e.pendingFunc:
				f.kind = parenFromItem
			case i == e.pendingGroup:
				f.kind = parenFromItem
				if i+1 < len(toks) && !toks[i+1].IsWord("SELECT", "WITH", "VALUES") {
					f.inFrom = true
					stack = append(stack, f)
					i = e.readTableFactor(i+1) - 1
					continue
				}
			case i > 0 && toks[i-1].IsWord(nonRelationFuncs...):
				f.kind = parenNonRelation
			}
			stack = append(stack, f)
		case tok.IsPunct(")"):
			if len(stack) == 1 {
				continue
			}
			kind := top.kind
			stack = stack[:len(stack)-1]
			if kind == parenFromItem {
				i = e.skipAlias(i+1) - 1
			}
		case tok.IsPunct(","):
			if top.inFrom {
				i = e.readTableFactor(i+1) - 1
			}
		case tok.IsWord("FROM"):
			if top.kind == parenNonRelation {
				continue
			}
			if i > 0 && toks[i-1].IsWord("DISTINCT") {
				continue
			}
			top.inFrom = true
			i = e.readTableFactor(i+1) - 1
		case tok.IsWord("JOIN"):
			i = e.readTableFactor(i+1) - 1
		case top.inFrom && tok.Kind == ir.TokenWord && fromListEnd[tok.Ident()]:
			top.inFrom = false
		}
	}
}

// readTableFactor records the relation named at i, if any, and returns the
// index of the first token the caller still has to scan
func (e *sourceExtractor) readTableFactor(i int) int {
	toks := e.tokens
	if i < len(toks) && toks[i].IsWord("LATERAL") {
		i++
	}
	if i >= len(toks) {
		return i
	}

	tok := toks[i]
	switch {
	case tok.IsPunct("("):
		e.pendingGroup = i
		return i
	case tok.IsWord("TABLE") && i+1 < len(toks) && toks[i+1].IsPunct("("):
		e.pendingFunc = i + 1
		return i + 1
	case tok.Kind == ir.TokenString:
		// staged file path
		return i + 1
	case !tok.IsIdent() || isClauseKeyword(tok):
		return i
	}

	parts, next := ir.ReadNameParts(toks, i)
	if next < len(toks) && toks[next].IsPunct("(") {
		// table function such as FLATTEN(...)
		e.pendingFunc = next
		return next
	}
	e.addSource(parts)
	return e.skipAlias(next)
}

// skipAlias skips "[AS] alias [(columns)]" starting at i
func (e *sourceExtractor) skipAlias(i int) int {
	toks := e.tokens
	if i < len(toks) && toks[i].IsWord("AS") {
		i++
	} else if i >= len(toks) || !toks[i].IsIdent() || isClauseKeyword(toks[i]) {
		return i
	}
	if i < len(toks) && toks[i].IsIdent() {
		i++
		if i < len(toks) && toks[i].IsPunct("(") {
			i = skipGroup(toks, i)
		}
	}
	return i
}

func (e *sourceExtractor) addSource(parts []ir.NamePart) {
	if len(parts) == 1 && e.ctes[parts[0].Normalized()] {
		return
	}
	name, ok := ir.ResolveName(parts, e.defaultSchema)
	if !ok {
		return
	}
	e.sources[name] = true
}

// collectCTENames finds names defined as "name [(columns)] AS (" after WITH or a comma
func collectCTENames(toks []ir.Token) map[string]bool {
	ctes := make(map[string]bool)
	for j := 1; j+1 < len(toks); j++ {
		if !toks[j].IsWord("AS") || !toks[j+1].IsPunct("(") {
			continue
		}
		k := j - 1
		if toks[k].IsPunct(")") {
			k = matchingOpen(toks, k) - 1
		}
		if k < 0 || !toks[k].IsIdent() {
			continue
		}
		if k == 0 || toks[k-1].IsWord("WITH", "RECURSIVE") || toks[k-1].IsPunct(",") {
			ctes[toks[k].Ident()] = true
		}
	}
	return ctes
}

// skipGroup returns the index just past the parenthesis closing the one at i
func skipGroup(toks []ir.Token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		switch {
		case toks[i].IsPunct("("):
			depth++
		case toks[i].IsPunct(")"):
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// matchingOpen returns the index of the "(" matching the ")" at i, or -1
func matchingOpen(toks []ir.Token, i int) int {
	depth := 0
	for ; i >= 0; i-- {
		switch {
		case toks[i].IsPunct(")"):
			depth++
		case toks[i].IsPunct("("):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isClauseKeyword(tok ir.Token) bool {
	return tok.Kind == ir.TokenWord && clauseKeywords[tok.Ident()]
}

func sortedNames(set map[ir.QualifiedName]bool) []ir.QualifiedName {
	names := make([]ir.QualifiedName, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i].String() < names[j].String()
	})
	return names
}
