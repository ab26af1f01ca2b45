package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Adda-Baaj/newsscrape/internal/app"
)

type recordedRun struct {
	called bool
	config string
	mode   app.Mode
}

func execute(t *testing.T, args ...string) (*recordedRun, string, error) {
	t.Helper()
	rec := &recordedRun{}
	cmd := newRootCmd(func(_ context.Context, configPath string, mode app.Mode) error {
		rec.called = true
		rec.config = configPath
		rec.mode = mode
		return nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return rec, out.String(), err
}

func TestRootSelectsMode(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want app.Mode
	}{
		{nil, app.ModeFresh},
		{[]string{"--resume"}, app.ModeResume},
		{[]string{"--reset"}, app.ModeReset},
		{[]string{"--rescrape", "--config", "cfg.yaml"}, app.ModeRescrape},
	} {
		rec, _, err := execute(t, tc.args...)
		if err != nil {
			t.Fatalf("%v: %v", tc.args, err)
		}
		if !rec.called || rec.mode != tc.want {
			t.Fatalf("%v: mode = %v want %v", tc.args, rec.mode, tc.want)
		}
	}
}

func TestRootPassesConfigPath(t *testing.T) {
	rec, _, err := execute(t, "--config", "configs/app.yaml")
	if err != nil || rec.config != "configs/app.yaml" {
		t.Fatalf("config = %q err %v", rec.config, err)
	}
}

func TestUnknownFlagPrintsUsageWithoutRunning(t *testing.T) {
	rec, out, err := execute(t, "-resume")
	if err == nil {
		t.Fatalf("expected error for unknown flag")
	}
	if rec.called {
		t.Fatalf("run must not be called on flag errors")
	}
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("expected usage output, got %q", out)
	}
}

func TestModeFlagsAreExclusive(t *testing.T) {
	rec, _, err := execute(t, "--reset", "--rescrape")
	if err == nil || rec.called {
		t.Fatalf("expected exclusive flag error, err=%v called=%v", err, rec.called)
	}
}
