package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plus-monitoring/general-healthcheck/pkg/cli"
)

const validConfig = `
defaults:
  check_interval: 30
  timeout: 1s
services:
  cache:
    type: redis
    fqdn: 127.0.0.1
    port: 1
    authentication:
      password: s3cret
  queue:
    type: rabbitmq
    fqdn: 127.0.0.1
    port: 1
    authentication:
      username: monitor
      password: s3cret
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the CLI with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"run", "check", "validate", "template", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	flag := cmd.PersistentFlags().Lookup("config")
	if flag == nil || flag.DefValue != DefaultConfigPath {
		t.Errorf("--config default = %v, want %s", flag, DefaultConfigPath)
	}
}

func TestVersionCmd(t *testing.T) {
	orig := Version
	Version = "9.9.9-test"
	defer func() { Version = orig }()

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "general-healthcheck 9.9.9-test") || !strings.Contains(out, "Go Version:") {
		t.Errorf("unexpected version output:\n%s", out)
	}

	if _, err := execute(t, "version", "extra"); err == nil {
		t.Error("version accepted positional arguments")
	}
}

func TestValidateCmd(t *testing.T) {
	path := writeFile(t, validConfig)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		check    func(t *testing.T, out string)
	}{
		{
			name: "text table",
			args: []string{"validate", "--config", path},
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "cache") || !strings.Contains(out, "queue") {
					t.Errorf("missing services in output:\n%s", out)
				}
				if strings.Contains(out, "s3cret") {
					t.Error("password printed by validate")
				}
			},
		},
		{
			name: "json",
			args: []string{"validate", "--config", path, "-o", "json"},
			check: func(t *testing.T, out string) {
				var report validateReport
				if err := json.Unmarshal([]byte(out), &report); err != nil {
					t.Fatalf("invalid JSON: %v\n%s", err, out)
				}
				if !report.Valid || len(report.Services) != 2 {
					t.Errorf("report = %+v", report)
				}
				if q := report.Services[1]; q.Name != "queue" || q.CheckInterval != "30s" || !q.HasPassword {
					t.Errorf("queue summary = %+v", q)
				}
			},
		},
		{
			name:     "missing file",
			args:     []string{"validate", "--config", filepath.Join(t.TempDir(), "absent.yml")},
			wantCode: 2,
		},
		{
			name:     "invalid config",
			args:     []string{"validate", "--config", writeFile(t, "services:\n  x:\n    type: kafka\n    fqdn: k\n")},
			wantCode: 2,
		},
		{
			name:     "bad output format",
			args:     []string{"validate", "--config", path, "-o", "xml"},
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if got := cli.ExitCode(err); got != tt.wantCode {
				t.Fatalf("exit code = %d (err %v), want %d", got, err, tt.wantCode)
			}
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestCheckCmd_Unreachable(t *testing.T) {
	path := writeFile(t, validConfig)

	out, err := execute(t, "check", "--config", path, "--log-level", "error", "--service", "cache", "-o", "csv")
	if got := cli.ExitCode(err); got != 1 {
		t.Fatalf("exit code = %d (err %v), want 1 for unreachable redis", got, err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "cache,redis,127.0.0.1:1,false,") {
		t.Errorf("row = %q", lines[1])
	}

	if _, err := execute(t, "check", "--config", path, "--service", "nope"); cli.ExitCode(err) != 2 {
		t.Errorf("unknown --service exit code = %d, want 2", cli.ExitCode(err))
	}
}

func TestRunCmd_DryRun(t *testing.T) {
	path := writeFile(t, validConfig)

	out, err := execute(t, "run", "--config", path, "--dry-run", "--log-level", "error")
	if err != nil {
		t.Fatalf("run --dry-run error = %v", err)
	}
	if !strings.Contains(out, "Configuration valid (2 services)") {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := execute(t, "run", "--config", path, "--dry-run", "--log-level", "loud"); cli.ExitCode(err) != 2 {
		t.Errorf("invalid --log-level exit code = %d, want 2", cli.ExitCode(err))
	}
}

func TestTemplateCmd(t *testing.T) {
	values := writeFile(t, "serviceAccount:\n  create: true\n")

	out, err := execute(t, "template", "--release", "prod", "--set", "image.tag=3f9c2e1", "-f", values, "--verify")
	if err != nil {
		t.Fatalf("template error = %v", err)
	}
	for _, want := range []string{
		"kind: DaemonSet",
		"kind: ServiceAccount",
		"name: prod-general-healthcheck",
		"general-healthcheck:3f9c2e1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if _, err := execute(t, "template", "--set", "broken"); err == nil {
		t.Error("template accepted malformed --set")
	}
}
