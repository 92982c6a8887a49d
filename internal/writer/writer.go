// Package writer renders schema objects and writes them either as one
// deployment script or as one file per object.
package writer

import (
	"context"
	"fmt"

	"github.com/gitsnow/gitsnow/internal/format"
	"github.com/gitsnow/gitsnow/ir"
)

// Writer receives rendered statements in the order they must be deployed
type Writer interface {
	// WriteStatementWithComment writes stmt for obj with an optional comment header
	WriteStatementWithComment(obj *ir.SchemaObject, stmt string) error
}

// Emit renders every object, formats it with f (nil means raw output) and
// hands it to w, keeping the order of objects.
func Emit(ctx context.Context, w Writer, objects []*ir.SchemaObject, f format.Formatter) error {
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return err
		}
		stmt := Render(obj)
		if f != nil {
			formatted, err := f.Format(ctx, stmt)
			if err != nil {
				return fmt.Errorf("formatting %s: %w", obj.Key(), err)
			}
			stmt = formatted
		}
		if err := w.WriteStatementWithComment(obj, stmt); err != nil {
			return fmt.Errorf("writing %s: %w", obj.Key(), err)
		}
	}
	return nil
}
