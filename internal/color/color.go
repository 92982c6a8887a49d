package color

import (
	"fmt"
	"os"
	"strings"
)

// ANSI color codes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
)

// Color represents a colorizer that can be enabled or disabled
type Color struct {
	enabled bool
}

// New creates a new Color instance
func New(enabled bool) *Color {
	return &Color{enabled: enabled && shouldEnableColor()}
}

// shouldEnableColor honors NO_COLOR (https://no-color.org/) and dumb terminals
func shouldEnableColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "dumb" && term != ""
}

func (c *Color) wrap(code, text string) string {
	if !c.enabled {
		return text
	}
	return code + text + Reset
}

// Object colors a managed object name (green)
func (c *Color) Object(text string) string {
	return c.wrap(Green, text)
}

// Dependency colors a reference to another managed object (cyan)
func (c *Color) Dependency(text string) string {
	return c.wrap(Cyan, text)
}

// External colors a reference to an object outside the managed set (yellow)
func (c *Color) External(text string) string {
	return c.wrap(Yellow, text)
}

// Error colors text red
func (c *Color) Error(text string) string {
	return c.wrap(Red, text)
}

// Bold makes text bold
func (c *Color) Bold(text string) string {
	return c.wrap(Bold, text)
}

// FormatObjectLine formats one step of a deployment sequence
func (c *Color) FormatObjectLine(step int, objectType, name string) string {
	return fmt.Sprintf("  %3d. %s %s", step, c.Object(name), strings.ToLower(objectType))
}

// FormatPlanHeader formats the summary line of a deployment plan
func (c *Color) FormatPlanHeader(objects, schemas, external int) string {
	parts := []string{
		c.Object(fmt.Sprintf("%d objects", objects)),
		fmt.Sprintf("%d schemas", schemas),
		c.External(fmt.Sprintf("%d external references", external)),
	}
	return fmt.Sprintf("Plan: %s.", strings.Join(parts, ", "))
}
