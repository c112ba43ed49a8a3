package task

import (
	"strings"
	"testing"
)

func TestNew_AssignsCorrelationID(t *testing.T) {
	tk := New("write a report")
	if tk.CorrelationID == "" {
		t.Fatal("expected a generated correlation ID")
	}
	if tk.Text != "write a report" {
		t.Fatalf("unexpected text: %q", tk.Text)
	}
}

func TestNewWithCorrelation_KeepsProvided(t *testing.T) {
	tk := NewWithCorrelation("scan this", "corr-1")
	if tk.CorrelationID != "corr-1" {
		t.Fatalf("expected corr-1, got %q", tk.CorrelationID)
	}
}

func TestNewWithCorrelation_GeneratesWhenEmpty(t *testing.T) {
	tk := NewWithCorrelation("scan this", "")
	if tk.CorrelationID == "" {
		t.Fatal("expected a generated correlation ID")
	}
}

func TestWithText_PreservesCorrelation(t *testing.T) {
	orig := NewWithCorrelation("first", "corr-9")
	derived := orig.WithText("second")

	if derived.Text != "second" {
		t.Fatalf("unexpected derived text: %q", derived.Text)
	}
	if derived.CorrelationID != "corr-9" {
		t.Fatalf("correlation ID not preserved: %q", derived.CorrelationID)
	}
	if orig.Text != "first" {
		t.Fatal("WithText mutated the original task")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short", "done", "done"},
		{"trims whitespace", "  done  ", "done"},
		{"first line only", "line one\nline two\nline three", "line one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.input); got != tt.want {
				t.Errorf("Summarize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSummarize_TruncatesLongLines(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := Summarize(long)
	if len([]rune(got)) != summaryLimit+1 { // limit runes plus ellipsis
		t.Fatalf("expected %d runes, got %d", summaryLimit+1, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatal("expected truncation ellipsis")
	}
}
