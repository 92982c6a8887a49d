package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gitsnow/gitsnow/internal/version"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs([]string{"version"})
	defer RootCmd.SetArgs(nil)

	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(output, "gitsnow v"+version.App()+"@") {
		t.Errorf("expected output to start with 'gitsnow v%s@', got: %s", version.App(), output)
	}
}
