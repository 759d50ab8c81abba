package updatelog

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	root := t.TempDir()
	logger, err := New(root, "0123456789abcdef", "fix-the-queue")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { logger.Close() })
	return logger, root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestNewCreatesNamedDirectory(t *testing.T) {
	logger, root := newTestLogger(t)

	base := filepath.Base(logger.Dir())
	if !strings.HasPrefix(base, "fix-the-queue_") {
		t.Errorf("directory should start with the codename, got %s", base)
	}
	if !strings.HasSuffix(base, "_01234567") {
		t.Errorf("directory should end with the short update id, got %s", base)
	}
	if filepath.Dir(logger.Dir()) != root {
		t.Errorf("directory should live under the root")
	}
}

func TestLogWritesTimestampedLines(t *testing.T) {
	logger, _ := newTestLogger(t)

	logger.Log("starting update %s", "fix-the-queue")
	logger.Close()

	content := readFile(t, filepath.Join(logger.Dir(), "main.log"))
	if !strings.Contains(content, "starting update fix-the-queue") {
		t.Errorf("main.log missing message: %q", content)
	}
	if !strings.Contains(content, "[20") {
		t.Errorf("main.log lines should carry a timestamp: %q", content)
	}
}

func TestLogPhaseWritesBothFiles(t *testing.T) {
	logger, _ := newTestLogger(t)

	logger.LogPhase("implementing", "task 1 of 3")
	logger.Close()

	phase := readFile(t, filepath.Join(logger.Dir(), "phase_implementing.log"))
	if !strings.Contains(phase, "task 1 of 3") {
		t.Errorf("phase log missing message: %q", phase)
	}
	main := readFile(t, filepath.Join(logger.Dir(), "main.log"))
	if !strings.Contains(main, "[implementing] task 1 of 3") {
		t.Errorf("main log should mirror phase lines: %q", main)
	}
}

func TestLogErrorAppendsToErrorLog(t *testing.T) {
	logger, _ := newTestLogger(t)

	logger.LogError("compile failed: %s", "syntax error")
	logger.Close()

	errors := readFile(t, filepath.Join(logger.Dir(), "errors.log"))
	if !strings.Contains(errors, "compile failed: syntax error") {
		t.Errorf("errors.log missing message: %q", errors)
	}
}

func TestLogValidationRecordsVerdicts(t *testing.T) {
	logger, _ := newTestLogger(t)

	logger.LogValidation("compilation", true, "")
	logger.LogValidation("tests", false, "2 failures")
	logger.Close()

	content := readFile(t, filepath.Join(logger.Dir(), "validation_results.log"))
	if !strings.Contains(content, "compilation: PASS") {
		t.Errorf("missing pass verdict: %q", content)
	}
	if !strings.Contains(content, "tests: FAIL") || !strings.Contains(content, "2 failures") {
		t.Errorf("missing fail verdict with output: %q", content)
	}
}

func TestWriteSummary(t *testing.T) {
	logger, _ := newTestLogger(t)

	summary := &Summary{
		UpdateID:   "0123456789abcdef",
		Codename:   "fix-the-queue",
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		FinalPhase: "complete",
		Success:    true,
	}
	if err := logger.WriteSummary(summary); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	var loaded Summary
	data := readFile(t, filepath.Join(logger.Dir(), "summary.json"))
	if err := json.Unmarshal([]byte(data), &loaded); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if loaded.Codename != "fix-the-queue" || !loaded.Success {
		t.Errorf("unexpected summary: %+v", loaded)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fix-the-queue", "fix-the-queue"},
		{"weird name/with:chars", "weird_name_with_chars"},
		{"", "update"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArchiveProducesTarball(t *testing.T) {
	logger, root := newTestLogger(t)
	logger.Log("hello")
	logger.Close()

	dirName := filepath.Base(logger.Dir())
	archivePath, err := Archive(root, dirName)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("archive is not gzip: %v", err)
	}
	tr := tar.NewReader(gz)

	foundMain := false
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read archive: %v", err)
		}
		if strings.HasSuffix(header.Name, "main.log") {
			foundMain = true
		}
	}
	if !foundMain {
		t.Error("archive should contain main.log")
	}
}

func TestArchiveMissingDirectory(t *testing.T) {
	root := t.TempDir()
	if _, err := Archive(root, "does-not-exist"); err == nil {
		t.Error("archiving a missing directory should fail")
	}
}
