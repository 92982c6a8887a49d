package graph

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gitsnow/gitsnow/ir"
)

func mustParse(t *testing.T, origin, sql string) *ir.SchemaObject {
	t.Helper()
	obj, err := ir.ParseObject(sql, origin, "sales")
	if err != nil {
		t.Fatalf("ParseObject(%q) error: %v", sql, err)
	}
	return obj
}

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

func TestBuild(t *testing.T) {
	g, err := Build(salesObjects(t))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if g.Len() != 4 {
		t.Errorf("Len() = %d; want 4", g.Len())
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount() = %d; want 4", g.EdgeCount())
	}

	tests := []struct {
		name         string
		dependencies []string
		dependents   []string
	}{
		{"SALES.ORDERS", nil, []string{"SALES.ORDER_ACCOUNT_SUMMARY", "SALES.ORDER_SUMMARY"}},
		{"SALES.ORDER_SUMMARY", []string{"SALES.ORDERS"}, []string{"SALES.ORDER_DEBUG_V2"}},
		{"SALES.ORDER_ACCOUNT_SUMMARY", []string{"SALES.ORDERS"}, []string{"SALES.ORDER_DEBUG_V2"}},
		{"SALES.ORDER_DEBUG_V2", []string{"SALES.ORDER_ACCOUNT_SUMMARY", "SALES.ORDER_SUMMARY"}, nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.dependencies, g.Dependencies(tt.name)); diff != "" {
			t.Errorf("Dependencies(%s) mismatch (-want +got):\n%s", tt.name, diff)
		}
		if diff := cmp.Diff(tt.dependents, g.Dependents(tt.name)); diff != "" {
			t.Errorf("Dependents(%s) mismatch (-want +got):\n%s", tt.name, diff)
		}
	}

	var external []string
	for _, ref := range g.AllExternalReferences() {
		external = append(external, ref.String())
	}
	if diff := cmp.Diff([]string{"SALES.CUSTOMERS", "SALES.CUSTOMER_ACCOUNTS"}, external); diff != "" {
		t.Errorf("AllExternalReferences mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"SALES.ORDER_DEBUG_V2"}, g.Unreferenced()); diff != "" {
		t.Errorf("Unreferenced mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SALES"}, g.Schemas()); diff != "" {
		t.Errorf("Schemas mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildOrderIndependent(t *testing.T) {
	base, err := Build(salesObjects(t))
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		objects := salesObjects(t)
		rng.Shuffle(len(objects), func(a, b int) { objects[a], objects[b] = objects[b], objects[a] })

		g, err := Build(objects)
		if err != nil {
			t.Fatalf("Build error: %v", err)
		}
		for _, name := range base.Names() {
			if diff := cmp.Diff(base.Dependencies(name), g.Dependencies(name)); diff != "" {
				t.Errorf("shuffle %d: Dependencies(%s) mismatch (-want +got):\n%s", i, name, diff)
			}
		}
	}
}

func TestBuildDuplicateObject(t *testing.T) {
	objects := []*ir.SchemaObject{
		mustParse(t, "sales/tables/orders.sql", "create table orders (id int)"),
		mustParse(t, "legacy/orders.sql", "create table sales.orders (id int, extra int)"),
		mustParse(t, "sales/views/v.sql", "create view v as select * from orders"),
	}

	_, err := Build(objects)
	if !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("Build error = %v; want ErrDuplicateObject", err)
	}
	var graphErr *GraphError
	if !errors.As(err, &graphErr) {
		t.Fatalf("error %T is not a *GraphError", err)
	}
	if graphErr.Name != "SALES.ORDERS" {
		t.Errorf("Name = %q; want SALES.ORDERS", graphErr.Name)
	}
	if diff := cmp.Diff([]string{"legacy/orders.sql", "sales/tables/orders.sql"}, graphErr.Origins); diff != "" {
		t.Errorf("Origins mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDropsSelfReference(t *testing.T) {
	objects := []*ir.SchemaObject{
		mustParse(t, "a.sql", "create view hierarchy as with recursive walk as (select * from hierarchy) select * from walk"),
	}
	g, err := Build(objects)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if deps := g.Dependencies("SALES.HIERARCHY"); len(deps) != 0 {
		t.Errorf("Dependencies = %v; want none", deps)
	}
	if refs := g.ExternalReferences("SALES.HIERARCHY"); len(refs) != 0 {
		t.Errorf("ExternalReferences = %v; want none", refs)
	}
}

func TestBuildWithSourcesError(t *testing.T) {
	objects := []*ir.SchemaObject{mustParse(t, "a.sql", "create table t (a int)")}
	boom := errors.New("boom")
	_, err := BuildWith(objects, func(*ir.SchemaObject) ([]ir.QualifiedName, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("BuildWith error = %v; want boom", err)
	}
	if !strings.Contains(err.Error(), "SALES.T") {
		t.Errorf("error %q does not name the object", err)
	}
}
