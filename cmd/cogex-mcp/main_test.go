package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "cogex-mcp dev") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("CACHE_REMOTE", "memcached")

	root := newRootCmd()
	root.SetArgs([]string{"serve"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected a config error")
	}
}
