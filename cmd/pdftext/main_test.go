package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkstream/pdftext/internal/testbuild"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		spec  string
		count int
		want  []int
		ok    bool
	}{
		{"1", 5, []int{1}, true},
		{"2-4", 5, []int{2, 3, 4}, true},
		{"3-", 5, []int{3, 4, 5}, true},
		{"1,3,5", 5, []int{1, 3, 5}, true},
		{"4-99", 5, []int{4, 5}, true},
		{"2-1", 5, nil, false},
		{"x", 5, nil, false},
		{"99", 5, nil, false},
	}
	for _, tt := range tests {
		got, err := parsePageRange(tt.spec, tt.count)
		if tt.ok != (err == nil) {
			t.Errorf("parsePageRange(%q): err = %v", tt.spec, err)
			continue
		}
		if !tt.ok {
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parsePageRange(%q) = %v, want %v", tt.spec, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parsePageRange(%q) = %v, want %v", tt.spec, got, tt.want)
				break
			}
		}
	}
}

func writeTestPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	doc := testbuild.SimpleDoc("BT /F1 12 Tf 72 700 Td (cli output) Tj ET")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunExtract(t *testing.T) {
	path := writeTestPDF(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"extract", path}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != "cli output" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunExtractToFile(t *testing.T) {
	path := writeTestPDF(t)
	out := filepath.Join(t.TempDir(), "out.txt")
	var stdout, stderr bytes.Buffer
	code := run([]string{"extract", "-o", out, path}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "cli output" {
		t.Errorf("file content = %q", data)
	}
}

func TestRunInfo(t *testing.T) {
	path := writeTestPDF(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"info", path}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "Pages:") {
		t.Errorf("info output = %q", stdout.String())
	}
}

func TestRunExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer

	if code := run(nil, &stdout, &stderr); code != exitArgs {
		t.Errorf("no args: exit = %d", code)
	}
	if code := run([]string{"frobnicate"}, &stdout, &stderr); code != exitArgs {
		t.Errorf("unknown command: exit = %d", code)
	}
	if code := run([]string{"extract"}, &stdout, &stderr); code != exitArgs {
		t.Errorf("extract without path: exit = %d", code)
	}
	if code := run([]string{"extract", "/no/such/file.pdf"}, &stdout, &stderr); code != exitIO {
		t.Errorf("missing file: exit = %d", code)
	}
}

func TestRunExtractBadRange(t *testing.T) {
	path := writeTestPDF(t)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"extract", "-p", "bogus", path}, &stdout, &stderr); code != exitArgs {
		t.Errorf("bad range: exit = %d", code)
	}
}
