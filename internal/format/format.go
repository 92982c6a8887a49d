// Package format post-processes generated DDL before it is written out.
package format

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/gitsnow/gitsnow/internal/logger"
)

// Formatter rewrites one DDL statement
type Formatter interface {
	Format(ctx context.Context, sql string) (string, error)
}

var (
	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	// dynamic table options come back from GET_DDL as "target_lag\n= '1 minute'"
	brokenAssign = regexp.MustCompile(`[\r\n]+[ \t]*=`)
	createTable  = regexp.MustCompile(`(?im)^([ \t]*)create\s+(?:or\s+replace\s+)?((?:(?:local|global|temp|temporary|volatile|transient)\s+)*)table\b`)
)

// Rules applies the built-in text normalizations
type Rules struct {
	// CreateOrAlterTables rewrites table statements to CREATE OR ALTER
	CreateOrAlterTables bool
}

func (r Rules) Format(_ context.Context, sql string) (string, error) {
	out := strings.ReplaceAll(sql, "\r\n", "\n")
	out = trailingSpace.ReplaceAllString(out, "")
	out = brokenAssign.ReplaceAllString(out, " =")
	if r.CreateOrAlterTables {
		out = createTable.ReplaceAllStringFunc(out, func(m string) string {
			parts := createTable.FindStringSubmatch(m)
			words := append([]string{"CREATE", "OR", "ALTER"}, strings.Fields(strings.ToUpper(parts[2]))...)
			return parts[1] + strings.Join(append(words, "TABLE"), " ")
		})
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// Command pipes SQL through an external program, e.g. "sqlfluff fix -".
// A failing program is logged and the input is returned unchanged.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a command line on whitespace
func ParseCommand(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty formatter command")
	}
	return &Command{Name: fields[0], Args: fields[1:]}, nil
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

func (c *Command) Format(ctx context.Context, sql string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stdin = strings.NewReader(sql)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Get().Warn("Formatter failed, keeping unformatted SQL",
			"command", c.String(), "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return sql, nil
	}
	if strings.TrimSpace(stdout.String()) == "" {
		logger.Get().Warn("Formatter produced no output, keeping unformatted SQL", "command", c.String())
		return sql, nil
	}
	return stdout.String(), nil
}

// Chain runs formatters in order, feeding each the previous output
type Chain []Formatter

func (ch Chain) Format(ctx context.Context, sql string) (string, error) {
	var err error
	for _, f := range ch {
		if f == nil {
			continue
		}
		if sql, err = f.Format(ctx, sql); err != nil {
			return "", err
		}
	}
	return sql, nil
}

// ForScripts returns the formatter for the deployment script: nil when
// command is empty, so statements are emitted exactly as parsed
func ForScripts(command string) (Formatter, error) {
	if strings.TrimSpace(command) == "" {
		return nil, nil
	}
	cmd, err := ParseCommand(command)
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

// New returns the formatter used for materialized files: the built-in rules,
// followed by command when it is not empty
func New(command string, createOrAlterTables bool) (Formatter, error) {
	chain := Chain{Rules{CreateOrAlterTables: createOrAlterTables}}
	if strings.TrimSpace(command) == "" {
		return chain, nil
	}
	cmd, err := ParseCommand(command)
	if err != nil {
		return nil, err
	}
	return append(chain, cmd), nil
}
