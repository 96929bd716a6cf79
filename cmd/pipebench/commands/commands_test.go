package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		flagConfig, flagKinds, flagTotal, flagRounds, flagFormat = "", nil, 0, 0, "text"
		flagLogLevel = "info"
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestKinds(t *testing.T) {
	out, err := execute(t, "kinds")
	if err != nil {
		t.Fatalf("kinds failed: %v", err)
	}
	for _, want := range []string{"syncpipe", "syncpipe-buffered", "io-pipe", "os-pipe"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunText(t *testing.T) {
	out, err := execute(t, "run", "--kind", "syncpipe", "--total", "65536", "--rounds", "1", "--log-level", "error")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "THROUGHPUT") || !strings.Contains(out, "syncpipe") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRunConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	data := "total: 8192\nrounds: 1\nkinds: [syncpipe-buffered]\ncases:\n  - size: 1024\n    reads: 2\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	out, err := execute(t, "run", "--config", path, "--format", "yaml", "--log-level", "error")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "kind: syncpipe-buffered") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"UnknownKind", []string{"run", "--kind", "nope", "--log-level", "error"}},
		{"UnknownFormat", []string{"run", "--kind", "syncpipe", "--total", "65536", "--rounds", "1", "--format", "xml", "--log-level", "error"}},
		{"BadLogLevel", []string{"kinds", "--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
