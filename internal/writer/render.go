package writer

import (
	"strings"

	"github.com/gitsnow/gitsnow/ir"
)

// Render builds the CREATE OR REPLACE statement for obj. Columns, clauses and
// the body are reproduced verbatim in the order they were parsed, so parsing
// the result yields an object equal to obj.
func Render(obj *ir.SchemaObject) string {
	var b strings.Builder

	b.WriteString("CREATE OR REPLACE ")
	for _, m := range obj.Modifiers {
		b.WriteString(strings.ToUpper(m))
		b.WriteString(" ")
	}
	b.WriteString(string(obj.Type))
	b.WriteString(" ")
	b.WriteString(obj.Name.Quoted())

	if len(obj.Columns) > 0 {
		b.WriteString(" (\n")
		for i, col := range obj.Columns {
			b.WriteString("    ")
			b.WriteString(col)
			if i < len(obj.Columns)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(")")
	}

	for _, prop := range obj.Properties {
		b.WriteString("\n")
		b.WriteString(renderProperty(prop))
	}

	if obj.Body != "" {
		b.WriteString("\nAS\n")
		b.WriteString(obj.Body)
	}
	b.WriteString(";")
	return b.String()
}

func renderProperty(prop ir.Property) string {
	name := strings.ToUpper(prop.Name)
	switch {
	case prop.Assign:
		return name + " = " + prop.Value
	case prop.Value != "":
		return name + " " + prop.Value
	}
	return name
}
