package ir

import (
	"strings"
)

// Snowflake reserved keywords that cannot be used as unquoted identifiers
// https://docs.snowflake.com/en/sql-reference/reserved-keywords
var reservedWords = map[string]bool{
	// A-C
	"ACCOUNT":           true,
	"ALL":               true,
	"ALTER":             true,
	"AND":               true,
	"ANY":               true,
	"AS":                true,
	"BETWEEN":           true,
	"BY":                true,
	"CASE":              true,
	"CAST":              true,
	"CHECK":             true,
	"COLUMN":            true,
	"CONNECT":           true,
	"CONNECTION":        true,
	"CONSTRAINT":        true,
	"CREATE":            true,
	"CROSS":             true,
	"CURRENT":           true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"CURRENT_TIMESTAMP": true,
	"CURRENT_USER":      true,
	// D-I
	"DATABASE":     true,
	"DELETE":       true,
	"DISTINCT":     true,
	"DROP":         true,
	"ELSE":         true,
	"EXISTS":       true,
	"FALSE":        true,
	"FOLLOWING":    true,
	"FOR":          true,
	"FROM":         true,
	"FULL":         true,
	"GRANT":        true,
	"GROUP":        true,
	"GSCLUSTER":    true,
	"HAVING":       true,
	"ILIKE":        true,
	"IN":           true,
	"INCREMENT":    true,
	"INNER":        true,
	"INSERT":       true,
	"INTERSECT":    true,
	"INTO":         true,
	"IS":           true,
	"ISSUE":        true,
	// J-R
	"JOIN":           true,
	"LATERAL":        true,
	"LEFT":           true,
	"LIKE":           true,
	"LOCALTIME":      true,
	"LOCALTIMESTAMP": true,
	"MINUS":          true,
	"NATURAL":        true,
	"NOT":            true,
	"NULL":           true,
	"OF":             true,
	"ON":             true,
	"OR":             true,
	"ORDER":          true,
	"ORGANIZATION":   true,
	"QUALIFY":        true,
	"REGEXP":         true,
	"REVOKE":         true,
	"RIGHT":          true,
	"RLIKE":          true,
	"ROW":            true,
	"ROWS":           true,
	// S-W
	"SAMPLE":      true,
	"SCHEMA":      true,
	"SELECT":      true,
	"SET":         true,
	"SOME":        true,
	"START":       true,
	"TABLE":       true,
	"TABLESAMPLE": true,
	"THEN":        true,
	"TO":          true,
	"TRIGGER":     true,
	"TRUE":        true,
	"TRY_CAST":    true,
	"UNION":       true,
	"UNIQUE":      true,
	"UPDATE":      true,
	"USING":       true,
	"VALUES":      true,
	"VIEW":        true,
	"WHEN":        true,
	"WHENEVER":    true,
	"WHERE":       true,
	"WITH":        true,
}

// IsReservedWord reports whether word is a reserved keyword, ignoring case
func IsReservedWord(word string) bool {
	return reservedWords[strings.ToUpper(word)]
}

// NormalizeIdentifier applies Snowflake's identifier resolution rules:
// unquoted identifiers fold to upper case, quoted identifiers are kept verbatim.
func NormalizeIdentifier(identifier string, quoted bool) string {
	if quoted {
		return identifier
	}
	return strings.ToUpper(identifier)
}

// NeedsQuoting checks if a normalized identifier has to be quoted to resolve to itself
func NeedsQuoting(identifier string) bool {
	if identifier == "" {
		return false
	}

	if reservedWords[identifier] {
		return true
	}

	// Unquoted identifiers fold to upper case, so anything else must be quoted
	for i := 0; i < len(identifier); i++ {
		c := identifier[i]
		switch {
		case c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '$'):
		default:
			return true
		}
	}

	return false
}

// QuoteIdentifier adds quotes to an identifier if needed
func QuoteIdentifier(identifier string) string {
	if NeedsQuoting(identifier) {
		return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
	}
	return identifier
}

// QualifyName returns the schema-qualified, quoted-as-needed name
func QualifyName(schema, name string) string {
	if schema == "" {
		return QuoteIdentifier(name)
	}
	return QuoteIdentifier(schema) + "." + QuoteIdentifier(name)
}
