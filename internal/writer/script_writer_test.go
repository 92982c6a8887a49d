package writer

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gitsnow/gitsnow/internal/format"
	"github.com/gitsnow/gitsnow/internal/graph"
	"github.com/gitsnow/gitsnow/internal/version"
	"github.com/gitsnow/gitsnow/ir"
)

func salesObjects(t *testing.T) []*ir.SchemaObject {
	return []*ir.SchemaObject{
		mustParse(t, "sales/tables/orders.sql", "create table orders (id int, customer_id int, account_id int)"),
		mustParse(t, "sales/views/order_summary.sql",
			"create view order_summary as select o.id, c.name from orders o join customers c on o.customer_id = c.id"),
		mustParse(t, "sales/views/order_account_summary.sql",
			"create view order_account_summary as select o.id, a.name from sales.orders o join customer_accounts a on o.account_id = a.id"),
		mustParse(t, "sales/views/order_debug_v2.sql",
			"create view order_debug_v2 as select * from order_account_summary s join order_summary t on s.id = t.id"),
	}
}

func TestScriptWriter(t *testing.T) {
	w := NewScriptWriter(true)
	w.WriteHeader(ScriptHeader{Database: "ANALYTICS", Objects: 1, Fingerprint: "abc123"})
	w.WriteSchemas([]string{"SALES"})
	obj := mustParse(t, "sales/tables/orders.sql", "create table orders (id int)")
	if err := w.WriteStatementWithComment(obj, Render(obj)+"\n"); err != nil {
		t.Fatalf("WriteStatementWithComment error: %v", err)
	}

	want := fmt.Sprintf(`--
-- gitsnow deployment script (version %s)
--
-- Database: ANALYTICS
-- Objects: 1
-- Fingerprint: abc123

CREATE SCHEMA IF NOT EXISTS SALES;

-- Object: SALES.ORDERS (TABLE)
-- Source: sales/tables/orders.sql
CREATE OR REPLACE TABLE SALES.ORDERS (
    id int
);
`, version.App())
	if diff := cmp.Diff(want, w.String()); diff != "" {
		t.Errorf("script mismatch (-want +got):\n%s", diff)
	}
}

func TestScriptWriterWithoutComments(t *testing.T) {
	w := NewScriptWriter(false)
	for _, sql := range []string{"create view a as select 1", "create view b as select 2"} {
		obj := mustParse(t, "", sql)
		if err := w.WriteStatementWithComment(obj, Render(obj)); err != nil {
			t.Fatalf("WriteStatementWithComment error: %v", err)
		}
	}
	want := "CREATE OR REPLACE VIEW SALES.A\nAS\nselect 1;\n\nCREATE OR REPLACE VIEW SALES.B\nAS\nselect 2;\n"
	if got := w.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	if got := NewScriptWriter(true).String(); got != "" {
		t.Errorf("empty writer String() = %q; want empty", got)
	}
}

func TestEmitRoundTrip(t *testing.T) {
	g, err := graph.Build(salesObjects(t))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	sequence, err := g.Sequence()
	if err != nil {
		t.Fatalf("Sequence error: %v", err)
	}

	w := NewScriptWriter(true)
	w.WriteHeader(ScriptHeader{Objects: len(sequence)})
	w.WriteSchemas(g.Schemas())
	if err := Emit(context.Background(), w, sequence, format.Rules{}); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	script := w.String()

	parsed, err := ir.NewParser("", nil).ParseScript("deploy.sql", script)
	if err != nil {
		t.Fatalf("ParseScript error: %v\n%s", err, script)
	}
	if len(parsed) != len(sequence) {
		t.Fatalf("parsed %d objects; want %d", len(parsed), len(sequence))
	}
	for i := range sequence {
		if !sequence[i].Equal(parsed[i]) {
			t.Errorf("object %d changed:\n%+v\n%+v", i, sequence[i], parsed[i])
		}
	}

	g2, err := graph.Build(parsed)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	resequenced, err := g2.Sequence()
	if err != nil {
		t.Fatalf("Sequence error: %v", err)
	}
	var want, got []string
	for i := range sequence {
		want = append(want, sequence[i].Key())
		got = append(got, resequenced[i].Key())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("re-sequenced order mismatch (-want +got):\n%s", diff)
	}
}

type failingFormatter struct{}

func (failingFormatter) Format(context.Context, string) (string, error) {
	return "", fmt.Errorf("formatter crashed")
}

func TestEmitFormatterError(t *testing.T) {
	objects := []*ir.SchemaObject{mustParse(t, "", "create view a as select 1")}
	err := Emit(context.Background(), NewScriptWriter(false), objects, failingFormatter{})
	if err == nil {
		t.Fatal("Emit should fail when the formatter fails")
	}
}

func TestEmitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	objects := []*ir.SchemaObject{mustParse(t, "", "create view a as select 1")}
	if err := Emit(ctx, NewScriptWriter(false), objects, nil); err != context.Canceled {
		t.Errorf("Emit error = %v; want context.Canceled", err)
	}
}

func TestSQLCollector(t *testing.T) {
	g, err := graph.Build(salesObjects(t))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	sequence, err := g.Sequence()
	if err != nil {
		t.Fatalf("Sequence error: %v", err)
	}

	c := NewSQLCollector(g)
	if err := Emit(context.Background(), c, sequence, nil); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	steps := c.GetSteps()
	if len(steps) != 4 {
		t.Fatalf("len(steps) = %d; want 4", len(steps))
	}

	summary := steps[2]
	if summary.ObjectPath != "SALES.ORDER_SUMMARY" || summary.ObjectType != "view" {
		t.Errorf("steps[2] = %+v", summary)
	}
	if diff := cmp.Diff([]string{"SALES.ORDERS"}, summary.Dependencies); diff != "" {
		t.Errorf("Dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SALES.CUSTOMERS"}, summary.External); diff != "" {
		t.Errorf("External mismatch (-want +got):\n%s", diff)
	}
	if summary.Source != "sales/views/order_summary.sql" {
		t.Errorf("Source = %q", summary.Source)
	}
}
