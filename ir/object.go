package ir

import (
	"sort"
	"strings"
)

// ObjectType is the kind of schema object a CREATE statement defines
type ObjectType string

const (
	ObjectTypeTable            ObjectType = "TABLE"
	ObjectTypeView             ObjectType = "VIEW"
	ObjectTypeDynamicTable     ObjectType = "DYNAMIC TABLE"
	ObjectTypeMaterializedView ObjectType = "MATERIALIZED VIEW"
)

// Dir returns the pluralized directory name used for materialized files,
// e.g. "dynamic_tables" for DYNAMIC TABLE.
func (t ObjectType) Dir() string {
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "_") + "s"
}

// HasBody reports whether objects of this type are defined by a query
func (t ObjectType) HasBody() bool {
	switch t {
	case ObjectTypeView, ObjectTypeDynamicTable, ObjectTypeMaterializedView:
		return true
	}
	return false
}

// QualifiedName identifies a schema object. Both parts are already normalized:
// unquoted identifiers are upper-cased, quoted identifiers keep their case.
type QualifiedName struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

// String returns the canonical "SCHEMA.NAME" key used for identity and ordering
func (q QualifiedName) String() string {
	return q.Schema + "." + q.Name
}

// Quoted returns the name as it must be written in SQL to resolve to the same object
func (q QualifiedName) Quoted() string {
	return QuoteIdentifier(q.Schema) + "." + QuoteIdentifier(q.Name)
}

// IsZero reports whether the name is empty
func (q QualifiedName) IsZero() bool {
	return q.Schema == "" && q.Name == ""
}

// Property is a single clause of a CREATE statement, e.g. target_lag = '1 minute'.
// Name is the lower-cased clause name, Value the raw clause text. Assign is set
// for "name = value" clauses; other clauses render as "NAME value".
type Property struct {
	Name   string `json:"name"`
	Value  string `json:"value,omitempty"`
	Assign bool   `json:"assign,omitempty"`
}

// Properties keeps clauses in the order they were encountered
type Properties []Property

// Get returns the raw value of the named clause
func (p Properties) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// Set replaces an existing clause of the same name in place or appends a new one
func (p *Properties) Set(prop Property) {
	prop.Name = strings.ToLower(prop.Name)
	for i := range *p {
		if (*p)[i].Name == prop.Name {
			(*p)[i] = prop
			return
		}
	}
	*p = append(*p, prop)
}

// Names returns clause names in encounter order
func (p Properties) Names() []string {
	names := make([]string, 0, len(p))
	for _, prop := range p {
		names = append(names, prop.Name)
	}
	return names
}

// Sorted returns a copy ordered by clause name
func (p Properties) Sorted() Properties {
	sorted := append(Properties(nil), p...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// Equal compares two clause sets ignoring their order
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	a, b := p.Sorted(), other.Sorted()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SchemaObject is one creatable warehouse object and its defining properties.
// Origin is provenance only and never takes part in identity or equality.
type SchemaObject struct {
	Name       QualifiedName `json:"name"`
	Type       ObjectType    `json:"type"`
	Modifiers  []string      `json:"modifiers,omitempty"` // TRANSIENT, SECURE, ...
	Columns    []string      `json:"columns,omitempty"`
	Properties Properties    `json:"properties,omitempty"`
	Body       string        `json:"body,omitempty"`
	Origin     string        `json:"origin,omitempty"`
}

// Key returns the qualified name used as the object's identity
func (o *SchemaObject) Key() string {
	return o.Name.String()
}

// Equal reports structural equality: provenance and clause order are ignored
func (o *SchemaObject) Equal(other *SchemaObject) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.Name != other.Name || o.Type != other.Type || o.Body != other.Body {
		return false
	}
	if !equalStrings(o.Columns, other.Columns) {
		return false
	}
	if !equalStrings(sortedCopy(o.Modifiers), sortedCopy(other.Modifiers)) {
		return false
	}
	return o.Properties.Equal(other.Properties)
}

// HasModifier reports whether the object was declared with the given qualifier keyword
func (o *SchemaObject) HasModifier(modifier string) bool {
	for _, m := range o.Modifiers {
		if strings.EqualFold(m, modifier) {
			return true
		}
	}
	return false
}

// SortObjects orders objects by qualified name
func SortObjects(objects []*SchemaObject) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Key() < objects[j].Key()
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
