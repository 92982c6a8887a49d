package writer

import (
	"testing"

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

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected string
	}{
		{
			name: "dynamic table keeps clause order",
			sql: `create or replace dynamic table order_summary (id, total)
  target_lag = '1 minute'
  refresh_mode = incremental
  cluster by (id)
  warehouse = transform_wh
as
select id, sum(amount) from orders group by id;`,
			expected: `CREATE OR REPLACE DYNAMIC TABLE SALES.ORDER_SUMMARY (
    id,
    total
)
TARGET_LAG = '1 minute'
REFRESH_MODE = incremental
CLUSTER BY (id)
WAREHOUSE = transform_wh
AS
select id, sum(amount) from orders group by id;`,
		},
		{
			name: "table with qualifier and flags",
			sql:  "create transient table t (a int, b varchar(10) not null) with data_retention_time_in_days = 1 copy grants",
			expected: `CREATE OR REPLACE TRANSIENT TABLE SALES.T (
    a int,
    b varchar(10) not null
)
WITH
DATA_RETENTION_TIME_IN_DAYS = 1
COPY GRANTS;`,
		},
		{
			name: "secure view with quoted name",
			sql:  `create secure view "Sales"."Order View" comment = 'x' as select 1`,
			expected: `CREATE OR REPLACE SECURE VIEW "Sales"."Order View"
COMMENT = 'x'
AS
select 1;`,
		},
		{
			name:     "clone",
			sql:      "create table t clone prod.orders",
			expected: "CREATE OR REPLACE TABLE SALES.T\nCLONE prod.orders;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(mustParse(t, "", tt.sql))
			if got != tt.expected {
				t.Errorf("Render() = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	statements := []string{
		"create or replace transient table sales.orders (id number(38,0) not null, amount number(10, 2)) cluster by (id) comment = 'raw orders'",
		"create dynamic table d target_lag = '1 minute' warehouse = wh refresh_mode = auto as select * from orders where note = 'a;b'",
		"create view v as\nselect 1 -- one\nfrom t",
		`create view "Sales"."Order View" as select "Id" from "Sales"."Orders"`,
		"create table t (a int) with data_retention_time_in_days = 1 copy grants",
		"create table t like sales.orders",
		"create table t as select * from x",
		"create materialized view mv cluster by (a) as select a from t",
		"create view v as select $$ a ; b $$ as s",
		"CREATE TABLE s.t5 (a int) WITH ROW ACCESS POLICY gov.p ON (a)",
		`create view v with row access policy "Gov"."P" on (id) as select id from t`,
	}

	for _, sql := range statements {
		obj := mustParse(t, "x.sql", sql)
		rendered := Render(obj)
		back, err := ir.ParseObject(rendered, "y.sql", "")
		if err != nil {
			t.Errorf("ParseObject(Render(%q)) error: %v\n%s", sql, err, rendered)
			continue
		}
		if !obj.Equal(back) {
			t.Errorf("round trip of %q changed the object:\n%+v\n%+v", sql, obj, back)
		}
		if again := Render(back); again != rendered {
			t.Errorf("Render is not stable for %q:\n%s\n%s", sql, rendered, again)
		}
	}
}
