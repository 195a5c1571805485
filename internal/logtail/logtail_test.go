package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"zero", 0, nil},
		{"negative", -1, nil},
		{"partial (5)", 5, expectedAll[5:]},
		{"exactly all (10)", 10, expectedAll},
		{"more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"warn","component":"poller","run":"abc","status":503,"error":"api down","time":"2025-10-08T21:01:05Z","message":"fetch current track failed"}`
	e := Parse(line)

	if e.Level != "warn" || e.Component != "poller" || e.Message != "fetch current track failed" {
		t.Fatalf("Parse() = %+v", e)
	}
	if e.Error != "api down" {
		t.Fatalf("Error = %q, want %q", e.Error, "api down")
	}
	if !e.Time.Equal(time.Date(2025, 10, 8, 21, 1, 5, 0, time.UTC)) {
		t.Fatalf("Time = %v", e.Time)
	}
	want := map[string]string{"run": "abc", "status": "503"}
	if !reflect.DeepEqual(e.Fields, want) {
		t.Fatalf("Fields = %v, want %v", e.Fields, want)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "panic: something",
			want:  "panic: something",
		},
		{
			name:  "broken json passes through",
			input: `{"level":`,
			want:  `{"level":`,
		},
		{
			name:  "component and fields",
			input: `{"level":"info","component":"poller","to":"success","from":"initializing","message":"status changed"}`,
			want:  "INFO [poller] – status changed from=initializing to=success",
		},
		{
			name:  "error rendered last",
			input: `{"level":"error","message":"store history failed","error":"disk full"}`,
			want:  `ERROR – store history failed error="disk full"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(Parse(tt.input)); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatLines_KeepsOrder(t *testing.T) {
	in := []string{`{"level":"debug","message":"a"}`, "raw", `{"level":"info","message":"b"}`}
	got := FormatLines(in)
	want := []string{"DEBUG – a", "raw", "INFO – b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FormatLines() = %v, want %v", got, want)
	}
	if FormatLines(nil) != nil {
		t.Fatalf("FormatLines(nil) should be nil")
	}
}
