// Package warehouse reads object definitions from a live Snowflake database.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gitsnow/gitsnow/internal/logger"
	"github.com/gitsnow/gitsnow/ir"
)

// Schemas that never hold managed objects
var systemSchemas = map[string]bool{
	"INFORMATION_SCHEMA": true,
	"PUBLIC":             true,
}

// ddlBatchSize bounds the GET_DDL calls combined into one UNION ALL query
const ddlBatchSize = 50

var integerType = regexp.MustCompile(`(?i)NUMBER\(38,\s*0\)`)

// Inspector builds SchemaObjects from warehouse metadata
type Inspector struct {
	db           *sql.DB
	database     string
	ignoreConfig *ir.IgnoreConfig
	workers      int
}

// NewInspector creates a new inspector for database with optional ignore configuration
func NewInspector(db *sql.DB, database string, ignoreConfig *ir.IgnoreConfig) *Inspector {
	return &Inspector{
		db:           db,
		database:     database,
		ignoreConfig: ignoreConfig,
		workers:      4,
	}
}

// SetWorkers bounds how many schemas are inspected at once
func (i *Inspector) SetWorkers(n int) {
	if n > 0 {
		i.workers = n
	}
}

// candidate is an object listed by SHOW before its DDL is fetched
type candidate struct {
	schema  string
	name    string
	objType ir.ObjectType
}

func (c candidate) fullName(database string) string {
	return quoteAlways(database) + "." + quoteAlways(c.schema) + "." + quoteAlways(c.name)
}

// ddlKind is the object type argument GET_DDL expects
func (c candidate) ddlKind() string {
	if c.objType == ir.ObjectTypeView || c.objType == ir.ObjectTypeMaterializedView {
		return "VIEW"
	}
	return "TABLE"
}

// Schemas lists the database's schemas, leaving out system and ignored ones
func (i *Inspector) Schemas(ctx context.Context) ([]string, error) {
	rows, err := i.query(ctx, "SHOW SCHEMAS IN DATABASE "+quoteAlways(i.database), "list schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}

	var schemas []string
	for _, row := range rows {
		name := row["name"]
		if name == "" || systemSchemas[strings.ToUpper(name)] || i.ignoreConfig.ShouldIgnoreSchema(name) {
			continue
		}
		schemas = append(schemas, name)
	}
	return schemas, nil
}

// Objects fetches and parses every table, view and dynamic table of schemas.
// Schemas are inspected concurrently; the result is ordered by qualified name.
func (i *Inspector) Objects(ctx context.Context, schemas []string) ([]*ir.SchemaObject, error) {
	results := make([][]*ir.SchemaObject, len(schemas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for idx, schema := range schemas {
		g.Go(func() error {
			objects, err := i.schemaObjects(gctx, schema)
			if err != nil {
				return fmt.Errorf("schema %s: %w", schema, err)
			}
			results[idx] = objects
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var objects []*ir.SchemaObject
	for _, list := range results {
		objects = append(objects, list...)
	}
	ir.SortObjects(objects)
	return objects, nil
}

func (i *Inspector) schemaObjects(ctx context.Context, schema string) ([]*ir.SchemaObject, error) {
	candidates, err := i.listObjects(ctx, schema)
	if err != nil {
		return nil, err
	}

	var objects []*ir.SchemaObject
	for start := 0; start < len(candidates); start += ddlBatchSize {
		end := min(start+ddlBatchSize, len(candidates))
		ddls, err := i.fetchDDL(ctx, candidates[start:end])
		if err != nil {
			return nil, err
		}

		for _, c := range candidates[start:end] {
			ddl, ok := ddls[c.fullName(i.database)]
			if !ok || ddl == "" || strings.HasPrefix(ddl, "-- Failed to get DDL") {
				logger.Get().Warn("Skipping object without accessible DDL", "schema", c.schema, "name", c.name)
				continue
			}
			obj, err := i.buildObject(ctx, c, ddl)
			if err != nil {
				return nil, err
			}
			if i.ignoreConfig.ShouldIgnore(obj) {
				logger.Get().Debug("Ignoring object", "object", obj.Key())
				continue
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// listObjects runs the SHOW commands of one schema. Dynamic tables also show
// up in SHOW TABLES and materialized views in SHOW VIEWS, so those are listed
// first and skipped afterwards.
func (i *Inspector) listObjects(ctx context.Context, schema string) ([]candidate, error) {
	scope := quoteAlways(i.database) + "." + quoteAlways(schema)
	shows := []struct {
		command string
		objType ir.ObjectType
	}{
		{"SHOW DYNAMIC TABLES IN SCHEMA " + scope, ir.ObjectTypeDynamicTable},
		{"SHOW MATERIALIZED VIEWS IN SCHEMA " + scope, ir.ObjectTypeMaterializedView},
		{"SHOW TABLES IN SCHEMA " + scope, ir.ObjectTypeTable},
		{"SHOW VIEWS IN SCHEMA " + scope, ir.ObjectTypeView},
	}

	seen := make(map[string]bool)
	var candidates []candidate
	for _, show := range shows {
		rows, err := i.query(ctx, show.command, "list "+show.objType.Dir())
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", show.objType.Dir(), err)
		}
		for _, row := range rows {
			name := row["name"]
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			candidates = append(candidates, candidate{schema: schema, name: name, objType: show.objType})
		}
	}
	return candidates, nil
}

// fetchDDL calls GET_DDL for a batch of objects in a single query, keyed by
// the objects' fully quoted names
func (i *Inspector) fetchDDL(ctx context.Context, batch []candidate) (map[string]string, error) {
	selects := make([]string, 0, len(batch))
	for _, c := range batch {
		name := quoteLiteral(c.fullName(i.database))
		selects = append(selects, fmt.Sprintf("SELECT %s AS obj_name, GET_DDL('%s', %s, TRUE) AS ddl", name, c.ddlKind(), name))
	}

	rows, err := i.query(ctx, strings.Join(selects, "\nUNION ALL\n"), "fetch DDL")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DDL: %w", err)
	}
	ddls := make(map[string]string, len(rows))
	for _, row := range rows {
		ddls[row["obj_name"]] = row["ddl"]
	}
	return ddls, nil
}

func (i *Inspector) buildObject(ctx context.Context, c candidate, ddl string) (*ir.SchemaObject, error) {
	origin := c.fullName(i.database)
	obj, err := ir.ParseObject(ddl, origin, "")
	if err != nil {
		return nil, err
	}
	if obj.Type != c.objType {
		logger.Get().Debug("Object type differs from SHOW listing", "object", obj.Key(), "listed", c.objType, "ddl", obj.Type)
	}

	if obj.Type == ir.ObjectTypeDynamicTable {
		columns, err := i.describeColumns(ctx, c)
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			obj.Columns = columns
		}
	}
	return obj, nil
}

// describeColumns returns typed column definitions for a dynamic table,
// whose DDL only lists column names
func (i *Inspector) describeColumns(ctx context.Context, c candidate) ([]string, error) {
	rows, err := i.query(ctx, "DESCRIBE TABLE "+c.fullName(i.database), "describe "+c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", c.name, err)
	}

	var columns []string
	for _, row := range rows {
		if kind := row["kind"]; kind != "" && !strings.EqualFold(kind, "COLUMN") {
			continue
		}
		def := ir.QuoteIdentifier(row["name"]) + " " + integerType.ReplaceAllString(row["type"], "INTEGER")
		if strings.EqualFold(row["null?"], "N") {
			def += " NOT NULL"
		}
		if comment := row["comment"]; comment != "" {
			def += " COMMENT " + quoteLiteral(comment)
		}
		columns = append(columns, def)
	}
	return columns, nil
}

// query runs a statement and returns its rows keyed by lower-cased column name.
// SHOW and DESCRIBE output differs between releases, so columns are read by name.
func (i *Inspector) query(ctx context.Context, query, description string) ([]map[string]string, error) {
	if logger.IsDebug() {
		logger.Get().Debug("Executing SQL", "description", description, "sql", query)
	}

	rows, err := i.db.QueryContext(ctx, query)
	if err != nil {
		if logger.IsDebug() {
			logger.Get().Debug("SQL execution failed", "description", description, "error", err)
		}
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]string
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for idx := range values {
			dest[idx] = &values[idx]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(columns))
		for idx, col := range columns {
			row[strings.ToLower(col)] = values[idx].String
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// quoteAlways quotes an identifier exactly as SHOW reports it
func quoteAlways(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, "'", "''")

// quoteLiteral writes s as a single-quoted string literal. Backslash starts an
// escape sequence inside Snowflake literals, so it is doubled too.
func quoteLiteral(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}
