package lsp

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/dicelang/compiler"
	"github.com/chazu/dicelang/config"
	"github.com/chazu/dicelang/engine"
	"github.com/chazu/dicelang/storage"
)

const (
	testUser   int64 = 7
	testServer int64 = 70
)

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Storage.Backend = storage.KindMemory
	e, err := engine.NewWithBackend(cfg, storage.NewMemoryBackend())
	if err != nil {
		t.Fatalf("NewWithBackend: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return NewServer(e, testUser, testServer), e
}

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"simple word", "x = sor", protocol.Position{Line: 0, Character: 7}, "sor"},
		{"at start", "len", protocol.Position{Line: 0, Character: 3}, "len"},
		{"empty line", "", protocol.Position{Line: 0, Character: 0}, ""},
		{"multi line", "a = 1\nb = 2\nfil", protocol.Position{Line: 2, Character: 3}, "fil"},
		{"after paren", "sum(ke", protocol.Position{Line: 0, Character: 6}, "ke"},
		{"cursor at beginning", "keys", protocol.Position{Line: 0, Character: 0}, ""},
		{"column past end", "abs", protocol.Position{Line: 0, Character: 40}, "abs"},
		{"line beyond document", "abs", protocol.Position{Line: 5, Character: 0}, ""},
		{"underscore", "my hit_po", protocol.Position{Line: 0, Character: 9}, "hit_po"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPrefix(tt.text, tt.pos); got != tt.want {
				t.Errorf("extractPrefix(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"middle of word", "sorted(v)", protocol.Position{Line: 0, Character: 3}, "sorted"},
		{"at end", "x = coinflip", protocol.Position{Line: 0, Character: 12}, "coinflip"},
		{"at space", "a   b", protocol.Position{Line: 0, Character: 2}, ""},
		{"second word", "our gold", protocol.Position{Line: 0, Character: 5}, "gold"},
		{"empty line", "", protocol.Position{Line: 0, Character: 0}, ""},
		{"multi line", "a\nglobal x", protocol.Position{Line: 1, Character: 1}, "global"},
		{"underscore", "max_hp + 1", protocol.Position{Line: 0, Character: 4}, "max_hp"},
		{"line beyond document", "abs", protocol.Position{Line: 3, Character: 0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractWord(tt.text, tt.pos); got != tt.want {
				t.Errorf("extractWord(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestBoolPtr(t *testing.T) {
	if p := boolPtr(true); p == nil || !*p {
		t.Error("boolPtr(true) should point at true")
	}
	if p := boolPtr(false); p == nil || *p {
		t.Error("boolPtr(false) should point at false")
	}
}

func TestDiagnoseValidSource(t *testing.T) {
	if d := diagnose("x = 3d6 + 2"); len(d) != 0 {
		t.Errorf("diagnose reported %d diagnostics for valid source: %+v", len(d), d)
	}
}

func TestDiagnoseSyntaxError(t *testing.T) {
	d := diagnose("x = 1\ny = (2 +")
	if len(d) != 1 {
		t.Fatalf("diagnose returned %d diagnostics, want 1", len(d))
	}
	if d[0].Range.Start.Line != 1 {
		t.Errorf("diagnostic line = %d, want 1", d[0].Range.Start.Line)
	}
	if d[0].Range.End.Character != d[0].Range.Start.Character+1 {
		t.Errorf("diagnostic range = %+v, want one character wide", d[0].Range)
	}
	if d[0].Severity == nil || *d[0].Severity != protocol.DiagnosticSeverityError {
		t.Error("diagnostic severity should be Error")
	}
	if !strings.Contains(d[0].Message, "syntax error") {
		t.Errorf("diagnostic message = %q", d[0].Message)
	}
}

func TestToPosition(t *testing.T) {
	got := toPosition(compiler.Position{Offset: 9, Line: 3, Column: 4})
	want := protocol.Position{Line: 2, Character: 3}
	if got != want {
		t.Errorf("toPosition = %+v, want %+v", got, want)
	}
}

func labels(items []protocol.CompletionItem) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		detail := ""
		if it.Detail != nil {
			detail = *it.Detail
		}
		out[it.Label] = detail
	}
	return out
}

func TestComplete(t *testing.T) {
	s, e := newTestServer(t)
	for _, src := range []string{"my food = 3", "our fort = 'stone'", "global fireball = () -> 8d6"} {
		if _, err := e.Execute(src, testUser, testServer); err != nil {
			t.Fatalf("Execute(%q): %v", src, err)
		}
	}

	got := labels(s.complete("f"))
	want := map[string]string{
		"for":      "keyword",
		"filter":   "builtin",
		"food":     "private",
		"fort":     "server",
		"fireball": "global",
	}
	for label, detail := range want {
		if got[label] != detail {
			t.Errorf("completion %q detail = %q, want %q (all: %v)", label, got[label], detail, got)
		}
	}
	if _, ok := got["_"]; ok {
		t.Error("completion should not offer _")
	}
	for label := range got {
		if !strings.HasPrefix(label, "f") {
			t.Errorf("completion %q does not match prefix", label)
		}
	}
}

func TestCompleteNoMatches(t *testing.T) {
	s, _ := newTestServer(t)
	if items := s.complete("zzqx"); len(items) != 0 {
		t.Errorf("complete(zzqx) = %v, want none", labels(items))
	}
}

func TestHoverBuiltin(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.hover("sum")
	if h == nil {
		t.Fatal("hover(sum) = nil")
	}
	mc := h.Contents.(protocol.MarkupContent)
	if mc.Kind != protocol.MarkupKindMarkdown {
		t.Errorf("hover kind = %q, want markdown", mc.Kind)
	}
	if !strings.Contains(mc.Value, "builtin") || !strings.Contains(mc.Value, "(v) -> &v") {
		t.Errorf("hover(sum) = %q", mc.Value)
	}
}

func TestHoverKeyword(t *testing.T) {
	s, _ := newTestServer(t)
	for _, word := range []string{"our", "xor"} {
		h := s.hover(word)
		if h == nil {
			t.Fatalf("hover(%s) = nil", word)
		}
		if v := h.Contents.(protocol.MarkupContent).Value; !strings.Contains(v, "keyword") {
			t.Errorf("hover(%s) = %q", word, v)
		}
	}
}

func TestHoverStoredVariable(t *testing.T) {
	s, e := newTestServer(t)
	if _, err := e.Execute("our gold = 250", testUser, testServer); err != nil {
		t.Fatal(err)
	}
	h := s.hover("gold")
	if h == nil {
		t.Fatal("hover(gold) = nil")
	}
	v := h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(v, "server") || !strings.Contains(v, "250") {
		t.Errorf("hover(gold) = %q", v)
	}
}

func TestHoverUnknownWord(t *testing.T) {
	s, _ := newTestServer(t)
	if h := s.hover("nothing_here"); h != nil {
		t.Errorf("hover(nothing_here) = %+v, want nil", h)
	}
}

func TestDocumentStore(t *testing.T) {
	s, _ := newTestServer(t)
	s.setDocument("file:///a.dice", "1d6")
	text, ok := s.document("file:///a.dice")
	if !ok || text != "1d6" {
		t.Errorf("document = %q, %v", text, ok)
	}
	if _, ok := s.document("file:///missing.dice"); ok {
		t.Error("missing document reported present")
	}
}
