package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Corphon/VisualMediaTool/internal/storage"
)

const scene = "A barista wipes the counter. Steam rises. Hopeful mood."

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_AnalyzesStdinAndWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "queries.csv")
	sessionPath := filepath.Join(dir, "session.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-out", out, "-session", sessionPath, "-limit", "4"},
		strings.NewReader(scene), &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v (stderr %s)", err, stderr.String())
	}

	if !strings.Contains(stdout.String(), "source:") || !strings.Contains(stdout.String(), "rake") {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}

	csvData, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	if lines[0] != "block,query,source" || len(lines) < 2 || len(lines) > 5 {
		t.Fatalf("csv = %q", csvData)
	}

	session, err := storage.LoadSessionFile(sessionPath)
	if err != nil {
		t.Fatal(err)
	}
	if session.Text != scene || len(session.Queries) != len(lines)-1 || session.MediaType != "photo" {
		t.Fatalf("session = %+v", session)
	}
}

func TestRun_BatchFromFile(t *testing.T) {
	in := writeFile(t, "scenes.txt", "The chef slices onions.\n\nRain falls on the quiet street.\n")
	out := filepath.Join(t.TempDir(), "queries.json")

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-in", in, "-batch", "-out", out}, nil, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "[1/2]") || !strings.Contains(stdout.String(), "[2/2]") {
		t.Fatalf("expected two blocks:\n%s", stdout.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "[") || !strings.Contains(string(data), `"block": 2`) {
		t.Fatalf("json = %s", data)
	}
}

func TestRun_Cues(t *testing.T) {
	otio := writeFile(t, "cut.otio", `{
  "OTIO_SCHEMA": "Timeline.1",
  "tracks": {"OTIO_SCHEMA": "Stack.1", "children": [
    {"OTIO_SCHEMA": "Track.1", "children": [
      {"OTIO_SCHEMA": "Clip.2", "name": "Opening", "metadata": {"note": "Steam rises over the counter"}},
      {"OTIO_SCHEMA": "Clip.2", "name": "Street", "metadata": {"note": "Rain falls on the quiet street"}}
    ]}
  ]}
}`)

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-cues", otio}, nil, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "Opening. Steam rises over the counter") {
		t.Fatalf("cue block missing:\n%s", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	notTimeline := writeFile(t, "x.otio", `{"name": "x"}`)

	cases := map[string][]string{
		"conflicting inputs": {"-in", "a.txt", "-cues", "b.otio"},
		"not a timeline":     {"-cues", notTimeline},
		"missing file":       {"-in", filepath.Join(t.TempDir(), "missing.txt")},
		"unknown flag":       {"-bogus"},
	}
	for name, args := range cases {
		var stdout, stderr bytes.Buffer
		if err := run(context.Background(), args, strings.NewReader(scene), &stdout, &stderr); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), nil, strings.NewReader("   \n"), &stdout, &stderr); err == nil {
		t.Error("blank input: expected error")
	}
}
