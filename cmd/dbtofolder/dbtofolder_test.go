package dbtofolder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/gitsnow/gitsnow/ir"
)

func TestDbToFolderCommand(t *testing.T) {
	if DbToFolderCmd.Use != "db-to-folder" {
		t.Errorf("Use = %q; want db-to-folder", DbToFolderCmd.Use)
	}
	if DbToFolderCmd.Short == "" || DbToFolderCmd.Long == "" {
		t.Error("expected Short and Long descriptions to be set")
	}

	flags := DbToFolderCmd.Flags()
	for _, name := range []string{"db-name", "schema", "connections-file", "formatter-cmd", "force-create-or-alter", "workers"} {
		if flags.Lookup(name) == nil {
			t.Errorf("expected --%s flag to be defined", name)
		}
	}
	if def := flags.Lookup("force-create-or-alter").DefValue; def != "true" {
		t.Errorf("--force-create-or-alter default = %s; want true", def)
	}
}

func TestNormalizeSchemas(t *testing.T) {
	got := normalizeSchemas([]string{"sales", " Marketing ", `"Mixed Case"`, ""})
	if diff := cmp.Diff([]string{"SALES", "MARKETING", "Mixed Case"}, got); diff != "" {
		t.Errorf("normalizeSchemas mismatch (-want +got):\n%s", diff)
	}
}

func nameRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"created_on", "name"})
	for _, name := range names {
		rows.AddRow("2024-01-01 00:00:00", name)
	}
	return rows
}

func expectSalesSchema(mock sqlmock.Sqlmock) {
	scope := `"ANALYTICS"."SALES"`
	mock.ExpectQuery("SHOW DYNAMIC TABLES IN SCHEMA " + scope).WillReturnRows(nameRows())
	mock.ExpectQuery("SHOW MATERIALIZED VIEWS IN SCHEMA " + scope).WillReturnRows(nameRows())
	mock.ExpectQuery("SHOW TABLES IN SCHEMA " + scope).WillReturnRows(nameRows("ORDERS"))
	mock.ExpectQuery("SHOW VIEWS IN SCHEMA " + scope).WillReturnRows(nameRows("ORDER_IDS", "TMP_CHECK"))

	query := `SELECT '"ANALYTICS"."SALES"."ORDERS"' AS obj_name, GET_DDL('TABLE', '"ANALYTICS"."SALES"."ORDERS"', TRUE) AS ddl` +
		"\nUNION ALL\n" +
		`SELECT '"ANALYTICS"."SALES"."ORDER_IDS"' AS obj_name, GET_DDL('VIEW', '"ANALYTICS"."SALES"."ORDER_IDS"', TRUE) AS ddl` +
		"\nUNION ALL\n" +
		`SELECT '"ANALYTICS"."SALES"."TMP_CHECK"' AS obj_name, GET_DDL('VIEW', '"ANALYTICS"."SALES"."TMP_CHECK"', TRUE) AS ddl`
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"OBJ_NAME", "DDL"}).
		AddRow(`"ANALYTICS"."SALES"."ORDERS"`, "create or replace TABLE ANALYTICS.SALES.ORDERS (\n\tID NUMBER(38,0) NOT NULL\n);").
		AddRow(`"ANALYTICS"."SALES"."ORDER_IDS"`, "create or replace view ANALYTICS.SALES.ORDER_IDS as select id from orders;").
		AddRow(`"ANALYTICS"."SALES"."TMP_CHECK"`, "create or replace view ANALYTICS.SALES.TMP_CHECK as select 1;"))
}

func TestWriteObjects(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	config := &DbToFolderConfig{
		ScriptsDir:         dir,
		Database:           "ANALYTICS",
		Schemas:            []string{"sales"},
		ForceCreateOrAlter: true,
		Workers:            1,
	}
	ignoreConfig := &ir.IgnoreConfig{Views: []string{"tmp_*"}}

	expectSalesSchema(mock)
	result, err := WriteObjects(context.Background(), db, config, ignoreConfig)
	if err != nil {
		t.Fatalf("WriteObjects error: %v", err)
	}
	if result.Objects != 2 {
		t.Errorf("Objects = %d; want 2", result.Objects)
	}
	wantPaths := []string{"sales/tables/orders.sql", "sales/views/order_ids.sql"}
	if diff := cmp.Diff(wantPaths, result.Written); diff != "" {
		t.Errorf("Written mismatch (-want +got):\n%s", diff)
	}

	files := map[string]string{
		"sales/tables/orders.sql":   "CREATE OR ALTER TABLE SALES.ORDERS (\n    ID NUMBER(38,0) NOT NULL\n);\n",
		"sales/views/order_ids.sql": "CREATE OR REPLACE VIEW SALES.ORDER_IDS\nAS\nselect id from orders;\n",
	}
	for path, want := range files {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
		if err != nil {
			t.Fatalf("failed to read %s: %v", path, err)
		}
		if diff := cmp.Diff(want, string(got)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", path, diff)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "sales", "views", "tmp_check.sql")); !os.IsNotExist(err) {
		t.Errorf("ignored view was written (stat error: %v)", err)
	}

	// second run against the same state leaves every file alone
	expectSalesSchema(mock)
	result, err = WriteObjects(context.Background(), db, config, ignoreConfig)
	if err != nil {
		t.Fatalf("second WriteObjects error: %v", err)
	}
	if len(result.Written) != 0 {
		t.Errorf("second run wrote %v; want nothing", result.Written)
	}
	if diff := cmp.Diff(wantPaths, result.Unchanged); diff != "" {
		t.Errorf("Unchanged mismatch (-want +got):\n%s", diff)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWriteObjectsAllSchemas(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SHOW SCHEMAS IN DATABASE "ANALYTICS"`).
		WillReturnRows(nameRows("INFORMATION_SCHEMA", "PUBLIC", "SALES"))
	expectSalesSchema(mock)

	config := &DbToFolderConfig{ScriptsDir: t.TempDir(), Database: "ANALYTICS", Workers: 1}
	result, err := WriteObjects(context.Background(), db, config, nil)
	if err != nil {
		t.Fatalf("WriteObjects error: %v", err)
	}
	if result.Objects != 3 {
		t.Errorf("Objects = %d; want 3", result.Objects)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
