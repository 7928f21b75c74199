package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/manna-labs/manna/internal/answer"
)

// captureStdout runs fn and returns everything it wrote to stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"serve", "ask", "ingest", "version"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("subcommand %q not registered on root command", name)
		}
	}
}

func TestVersionCommandOutput(t *testing.T) {
	output := captureStdout(t, func() {
		versionCmd.Run(versionCmd, nil)
	})

	for _, expected := range []string{"manna " + AppVersion, "Build Time:", "Git Commit:"} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected version output to contain %q\nGot: %s", expected, output)
		}
	}
}

func TestPrintSourceList(t *testing.T) {
	sources := []answer.Source{
		{Index: 1, Label: "Devotional: Patience in Trials (2024-03-01)"},
		{Index: 2, Label: "James 1:2"},
	}

	tests := []struct {
		name      string
		sources   []answer.Source
		citations []int
		contains  []string
		absent    []string
	}{
		{
			name:      "cited source gets a marker",
			sources:   sources,
			citations: []int{2},
			contains: []string{
				"Sources:",
				"  [1] Devotional: Patience in Trials (2024-03-01)",
				"* [2] James 1:2",
			},
		},
		{
			name:    "no citations lists everything unmarked",
			sources: sources,
			contains: []string{
				"  [1] Devotional: Patience in Trials (2024-03-01)",
				"  [2] James 1:2",
			},
			absent: []string{"*"},
		},
		{
			name:   "no sources prints nothing",
			absent: []string{"Sources:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureStdout(t, func() {
				printSourceList(tt.sources, tt.citations)
			})

			for _, s := range tt.contains {
				if !strings.Contains(output, s) {
					t.Errorf("expected output to contain %q\nGot: %s", s, output)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(output, s) {
					t.Errorf("expected output not to contain %q\nGot: %s", s, output)
				}
			}
		})
	}
}
