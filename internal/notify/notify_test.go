package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestGuardSuccess(t *testing.T) {
	var rec Recorder
	got, ok := Guard(&rec, Options[int]{ShowSuccess: true}, func() (int, error) { return 7, nil })
	if !ok || got != 7 {
		t.Fatalf("expected 7/true, got %d/%v", got, ok)
	}
	notices := rec.Notices()
	if len(notices) != 1 || notices[0].Kind != Success || notices[0].Message != defaultSuccess {
		t.Fatalf("unexpected notices: %+v", notices)
	}
}

func TestGuardQuietSuccess(t *testing.T) {
	var rec Recorder
	if _, ok := Guard(&rec, Options[string]{}, func() (string, error) { return "x", nil }); !ok {
		t.Fatal("expected success")
	}
	if len(rec.Notices()) != 0 {
		t.Fatalf("expected no notices, got %+v", rec.Notices())
	}
}

func TestGuardFailureReturnsSentinel(t *testing.T) {
	var rec Recorder
	got, ok := Guard(&rec, Options[[]int]{FailureTitle: "Error"}, func() ([]int, error) {
		return []int{1}, errors.New("boom")
	})
	if ok || got != nil {
		t.Fatalf("expected zero value and false, got %v/%v", got, ok)
	}
	n := rec.Notices()
	if len(n) != 1 || n[0].Kind != Failure || n[0].String() != "Error: boom" {
		t.Fatalf("unexpected notices: %+v", n)
	}
}

func TestGuardDescribe(t *testing.T) {
	var rec Recorder
	Guard(&rec, Options[int]{ShowSuccess: true, Describe: func(n int) string {
		return EvaluationComplete(n).Message
	}}, func() (int, error) { return 3, nil })
	if got := rec.Notices()[0].Message; got != "Processed 3 prompts successfully." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestGuardNilNotifier(t *testing.T) {
	if _, ok := Guard[int](nil, Options[int]{}, func() (int, error) { return 0, errors.New("x") }); ok {
		t.Fatal("expected failure")
	}
}

func TestMessages(t *testing.T) {
	if got := EvaluationStarted(5).String(); got != "Evaluation Started: Processing 5 prompts. This may take 10-20 minutes." {
		t.Fatalf("started: %q", got)
	}
	if got := EvaluationFailed("").String(); got != "Evaluation Failed: An error occurred during evaluation." {
		t.Fatalf("failed default: %q", got)
	}
	if got := InvalidFile().String(); got != "Invalid File: Please upload a CSV file" {
		t.Fatalf("invalid file: %q", got)
	}
}

func TestConsoleWrites(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Notify(EvaluationComplete(2))
	c.Notify(Notice{Kind: Info, Message: "plain"})
	out := buf.String()
	if !strings.Contains(out, "Evaluation Complete!: Processed 2 prompts successfully.") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "plain\n") {
		t.Fatalf("expected untitled line, got %q", out)
	}
}
