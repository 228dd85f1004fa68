package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// fakeCompleter records calls and returns a canned reply.
type fakeCompleter struct {
	reply     string
	err       error
	delay     time.Duration
	calls     int
	lastUser  string
	lastSys   string
	lastLimit int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	f.calls++
	f.lastSys, f.lastUser, f.lastLimit = system, user, maxTokens
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

const eightSentences = "S1. S2. S3. S4. S5. S6. S7. S8."

func TestSummarize_EmptyInput(t *testing.T) {
	remote := &fakeCompleter{reply: "should not be used"}
	s := New(Options{HasCredential: true}, remote, nil)

	for _, text := range []string{"", "   ", "\n\t "} {
		res := s.Summarize(context.Background(), text)
		if res.Text != "" || res.Outcome != OutcomeEmpty {
			t.Errorf("Summarize(%q) = %+v, want empty outcome", text, res)
		}
	}
	if remote.calls != 0 {
		t.Errorf("remote calls = %d, want 0", remote.calls)
	}
}

func TestSummarize_NoCredentialUsesLocal(t *testing.T) {
	remote := &fakeCompleter{reply: "remote"}
	s := New(Options{HasCredential: false}, remote, nil)

	res := s.Summarize(context.Background(), eightSentences)
	if res.Outcome != OutcomeLocal {
		t.Errorf("Outcome = %q, want %q", res.Outcome, OutcomeLocal)
	}
	if res.Text != "S1. S2. S3. [...] S7. S8." {
		t.Errorf("Text = %q", res.Text)
	}
	if remote.calls != 0 {
		t.Errorf("remote calls = %d, want 0", remote.calls)
	}
}

func TestSummarize_Remote(t *testing.T) {
	remote := &fakeCompleter{reply: "  <p>A <b>concise</b> summary.</p>\n"}
	s := New(Options{HasCredential: true}, remote, nil)

	res := s.Summarize(context.Background(), "Some article text.")
	if res.Outcome != OutcomeRemote {
		t.Fatalf("Outcome = %q, want %q (cause %v)", res.Outcome, OutcomeRemote, res.Cause)
	}
	if res.Text != "A concise summary." {
		t.Errorf("Text = %q, want markup stripped", res.Text)
	}
	if remote.lastSys != systemPrompt {
		t.Errorf("system prompt = %q", remote.lastSys)
	}
	if remote.lastUser != userPromptPrefix+"Some article text." {
		t.Errorf("user prompt = %q", remote.lastUser)
	}
	if remote.lastLimit != DefaultMaxTokens {
		t.Errorf("max tokens = %d, want %d", remote.lastLimit, DefaultMaxTokens)
	}
}

func TestSummarize_TruncatesInput(t *testing.T) {
	remote := &fakeCompleter{reply: "ok"}
	s := New(Options{HasCredential: true, MaxInputChars: 10}, remote, nil)

	s.Summarize(context.Background(), strings.Repeat("é", 25))

	sent := strings.TrimPrefix(remote.lastUser, userPromptPrefix)
	if n := utf8.RuneCountInString(sent); n != 10 {
		t.Errorf("sent %d characters, want 10", n)
	}
	if !utf8.ValidString(sent) {
		t.Error("truncated text is not valid UTF-8")
	}
}

func TestSummarize_Degraded(t *testing.T) {
	tests := []struct {
		name   string
		remote *fakeCompleter
		opts   Options
	}{
		{"transport error", &fakeCompleter{err: errors.New("connection refused")}, Options{HasCredential: true}},
		{"empty reply", &fakeCompleter{reply: "   "}, Options{HasCredential: true}},
		{"markup-only reply", &fakeCompleter{reply: "<p></p>"}, Options{HasCredential: true}},
		{"timeout", &fakeCompleter{reply: "late", delay: time.Second}, Options{HasCredential: true, Timeout: 10 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.opts, tt.remote, nil)

			res := s.Summarize(context.Background(), eightSentences)
			if res.Outcome != OutcomeDegraded {
				t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeDegraded)
			}
			if res.Cause == nil {
				t.Error("Cause should be set for a degraded outcome")
			}
			if res.Text != Extractive(eightSentences) {
				t.Errorf("Text = %q, want local summary", res.Text)
			}
			if tt.remote.calls != 1 {
				t.Errorf("remote calls = %d, want 1", tt.remote.calls)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"日本語テキスト", 3, "日本語"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := truncateRunes(tt.text, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}
