package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/veravista/veravista/composer"
	"github.com/veravista/veravista/culture"
	"github.com/veravista/veravista/translate"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{
			name:    "clamps below zero",
			percent: -10,
			width:   4,
			want:    colorRed + "░░░░" + colorReset + "   0%",
		},
		{
			name:    "mid range uses yellow",
			percent: 50,
			width:   4,
			want:    colorYellow + "██░░" + colorReset + "  50%",
		},
		{
			name:    "high confidence uses green",
			percent: 95,
			width:   4,
			want:    colorGreen + "███░" + colorReset + "  95%",
		},
		{
			name:    "clamps above hundred",
			percent: 120,
			width:   4,
			want:    colorGreen + "████" + colorReset + " 100%",
		},
	}

	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" poetry, ,cooking ,,cricket ")
	want := []string{"poetry", "cooking", "cricket"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitList() = %v, want %v", got, want)
	}
	if got := splitList(""); len(got) != 0 {
		t.Fatalf("splitList(\"\") = %v, want empty", got)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, want := range []string{"language", "translate", "alternatives", "correct", "notes", "connections", "starters", "track", "compose", "version"} {
		found := false
		for _, name := range got {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("root command %q missing from %v", want, got)
		}
	}
}

// useTempRoot writes a config pointing the data directory into a temp dir
// and pins the locale to English.
func useTempRoot(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES"} {
		t.Setenv(k, "")
	}
	t.Setenv("LANG", "en_US.UTF-8")

	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	cfg := "log_level: error\ndata_dir: " + data + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".veravista.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	root.SetContext(context.Background())
	err := root.Execute()
	return out.String(), err
}

func TestTranslateCommand(t *testing.T) {
	dir := useTempRoot(t)

	out, err := execute(t, "--root", dir, "translate", "--from", "english", "--to", "urdu", "Thank", "you")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.HasPrefix(out, "Shukriya [adapted for Urdu cultural context]\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Confidence") {
		t.Fatalf("output missing confidence line:\n%s", out)
	}
}

func TestTranslateRequiresTarget(t *testing.T) {
	dir := useTempRoot(t)

	if _, err := execute(t, "--root", dir, "translate", "Hello"); err == nil {
		t.Fatal("expected error without --to")
	}
}

func TestLanguageSetPersists(t *testing.T) {
	dir := useTempRoot(t)

	if _, err := execute(t, "--root", dir, "language", "set", "chinese"); err != nil {
		t.Fatalf("language set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "preferences.json")); err != nil {
		t.Fatalf("preferences not saved: %v", err)
	}

	out, err := execute(t, "--root", dir, "language")
	if err != nil {
		t.Fatalf("language: %v", err)
	}
	if !strings.Contains(out, "layoutDensity      dense") {
		t.Fatalf("expected Chinese settings, got:\n%s", out)
	}

	if _, err := execute(t, "--root", dir, "language", "reset"); err != nil {
		t.Fatalf("language reset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "preferences.json")); !os.IsNotExist(err) {
		t.Fatalf("preferences still present after reset: %v", err)
	}
}

func TestLanguageOverride(t *testing.T) {
	dir := useTempRoot(t)

	if _, err := execute(t, "--root", dir, "language", "--override", "nope"); err == nil {
		t.Fatal("expected error for malformed override")
	}
	if _, err := execute(t, "--root", dir, "language", "--override", "fontSize=huge"); err == nil {
		t.Fatal("expected error for unknown setting")
	}

	out, err := execute(t, "--root", dir, "language", "--override", "colorScheme=vivid")
	if err != nil {
		t.Fatalf("language --override: %v", err)
	}
	if !strings.Contains(out, "colorScheme        vivid") {
		t.Fatalf("override not applied:\n%s", out)
	}
}

func TestCorrectCommand(t *testing.T) {
	dir := useTempRoot(t)

	if _, err := execute(t, "--root", dir, "correct", "--from", "english", "--to", "urdu", "Good night", "[ur] Good night", "Shab bakhair"); err != nil {
		t.Fatalf("correct: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "corrections", "english-urdu.po")); err != nil {
		t.Fatalf("correction file missing: %v", err)
	}

	out, err := execute(t, "--root", dir, "correct", "--from", "english", "--to", "urdu", "--list")
	if err != nil {
		t.Fatalf("correct --list: %v", err)
	}
	if !strings.Contains(out, "+ Shab bakhair") {
		t.Fatalf("listing missing correction:\n%s", out)
	}
}

func TestComposeLine(t *testing.T) {
	var out bytes.Buffer
	c := composer.NewComposer(translate.New(translate.Options{}), "me", "friend", culture.English, culture.Urdu)
	t.Cleanup(c.Close)

	ctx := context.Background()

	if quit, err := composeLine(ctx, c, "Welcome", &out); quit || err != nil {
		t.Fatalf("draft line: quit=%v err=%v", quit, err)
	}
	if c.Text() != "Welcome" {
		t.Fatalf("draft = %q, want %q", c.Text(), "Welcome")
	}

	if _, err := composeLine(ctx, c, "/to chinese", &out); err != nil {
		t.Fatalf("/to: %v", err)
	}
	if _, target := c.Languages(); target != culture.Chinese {
		t.Fatalf("target = %s, want chinese", target)
	}
	if _, err := composeLine(ctx, c, "/to klingon", &out); err == nil {
		t.Fatal("expected error for unknown language")
	}

	if _, err := composeLine(ctx, c, "/send", &out); err != nil {
		t.Fatalf("/send: %v", err)
	}
	if c.Text() != "" {
		t.Fatalf("draft not cleared after send: %q", c.Text())
	}

	if quit, _ := composeLine(ctx, c, "/quit", &out); !quit {
		t.Fatal("/quit did not quit")
	}
}

func TestRunComposeStopsAtQuit(t *testing.T) {
	var out bytes.Buffer
	c := composer.NewComposer(translate.New(translate.Options{}), "me", "friend", culture.English, culture.Urdu)
	t.Cleanup(c.Close)

	in := strings.NewReader("Hello\n/quit\nnever read\n")
	if err := runCompose(context.Background(), c, in, &out); err != nil {
		t.Fatalf("runCompose: %v", err)
	}
	if c.Text() != "Hello" {
		t.Fatalf("draft = %q, want %q", c.Text(), "Hello")
	}
}

func TestSyncWriterKeepsLinesWhole(t *testing.T) {
	var buf bytes.Buffer
	w := &syncWriter{w: &buf}

	const writers, lines = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < lines; j++ {
				fmt.Fprintf(w, "  Preview: writer %d line %d\n", i, j)
			}
		}(i)
	}
	wg.Wait()

	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(got) != writers*lines {
		t.Fatalf("got %d lines, want %d", len(got), writers*lines)
	}
	for _, line := range got {
		if !strings.HasPrefix(line, "  Preview: writer ") {
			t.Fatalf("interleaved line: %q", line)
		}
	}
}
