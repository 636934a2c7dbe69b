// Package lsp serves dicelang editor features over the Language Server
// Protocol: syntax diagnostics, completion and hover.
package lsp

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/dicelang/compiler"
	"github.com/chazu/dicelang/engine"
	"github.com/chazu/dicelang/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "dicelang-lsp"

var log = commonlog.GetLogger("dicelang.lsp")

// keywordDocs describes the keywords that get a hover card.
var keywordDocs = map[string]string{
	"my":      "Resolve the name in the caller's private tier.",
	"our":     "Resolve the name in the current server's tier.",
	"global":  "Resolve the name in the tier shared by every server.",
	"core":    "Resolve the name in the core tier. Only editors may change it.",
	"for":     "`for x in v do body` collects body for each element of v.",
	"while":   "`while cond do body` collects body until cond is false.",
	"do":      "`do body while cond` runs body at least once.",
	"if":      "`if cond then a else b`",
	"del":     "`del name` removes a variable and yields its old value.",
	"import":  "`import name as alias` binds a stored function into scope.",
	"aliases": "`name aliases fn` makes a zero-argument function run on reference.",
	"print":   "Queue text for output without a newline.",
	"println": "Queue text for output followed by a newline.",
	"inspect": "Queue the decompiled form of a value for output.",
	"break":   "Leave the innermost loop, optionally with a final value.",
	"skip":    "Continue with the next iteration, optionally with a value.",
	"return":  "Leave the enclosing function with a value.",
	"typeof":  "Name the type of a value.",
	"seek":    "Find the first index of a value in a sequence.",
	"like":    "Match a string against a regular expression.",
	"to":      "`[a to b]` is the half-open integer range from a to b.",
	"through": "`[a through b]` is the closed integer range from a to b.",
	"by":      "Range step: `[0 to 10 by 2]`.",
}

// Server bridges LSP editor features to a dicelang engine. Stored-name
// lookups run on behalf of a fixed user and server.
type Server struct {
	engine   *engine.Engine
	userID   int64
	serverID int64

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewServer creates a language server over e.
func NewServer(e *engine.Engine, userID, serverID int64) *Server {
	s := &Server{
		engine:   e,
		userID:   userID,
		serverID: serverID,
		docs:     make(map[string]string),
		version:  "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run serves on stdio until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("dicelang LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.setDocument(string(uri), text)
	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) == 0 {
		return nil
	}
	last := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
		s.setDocument(string(uri), whole.Text)
		s.publishDiagnostics(ctx, uri, whole.Text)
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return s.complete(prefix), nil
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return s.hover(word), nil
}

func (s *Server) setDocument(uri, text string) {
	s.mu.Lock()
	s.docs[uri] = text
	s.mu.Unlock()
}

func (s *Server) document(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[uri]
	return text, ok
}

// storedTiers are the tiers offered to completion and hover, most specific
// first.
func (s *Server) storedTiers() []struct {
	tier  vm.Tier
	owner int64
} {
	return []struct {
		tier  vm.Tier
		owner int64
	}{
		{vm.TierPrivate, s.userID},
		{vm.TierServer, s.serverID},
		{vm.TierGlobal, vm.GlobalOwner},
		{vm.TierCore, vm.GlobalOwner},
	}
}

func (s *Server) complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := make(map[string]bool)
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if seen[label] || !strings.HasPrefix(label, prefix) {
			return
		}
		seen[label] = true
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}

	for _, kw := range compiler.Keywords() {
		add(kw, protocol.CompletionItemKindKeyword, "keyword")
	}
	for _, name := range s.engine.Interpreter().Builtins().Names() {
		add(name, protocol.CompletionItemKindFunction, "builtin")
	}
	for _, t := range s.storedTiers() {
		names, err := s.engine.ListNames(t.tier, t.owner)
		if err != nil {
			log.Warningf("completion: list %s names: %v", t.tier, err)
			continue
		}
		for _, name := range names {
			if name == "_" {
				continue
			}
			add(name, protocol.CompletionItemKindVariable, t.tier.String())
		}
	}

	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func (s *Server) hover(word string) *protocol.Hover {
	if src, ok := vm.BuiltinSource(word); ok {
		return markdown(fmt.Sprintf("**%s** (builtin)\n\n```\n%s = %s\n```", word, word, src))
	}
	if doc, ok := keywordDocs[word]; ok {
		return markdown(fmt.Sprintf("**%s** (keyword)\n\n%s", word, doc))
	}
	if compiler.IsReserved(word) {
		return markdown(fmt.Sprintf("**%s** (keyword)", word))
	}

	var b strings.Builder
	for _, t := range s.storedTiers() {
		v, err := s.engine.Store().Get(t.tier, t.owner, word)
		if err != nil {
			log.Warningf("hover: load %s %q: %v", t.tier, word, err)
			continue
		}
		if v == vm.Undefined {
			continue
		}
		fmt.Fprintf(&b, "**%s** (%s)\n\n```\n%s\n```\n\n", word, t.tier, vm.Repr(v))
	}
	if b.Len() == 0 {
		return nil
	}
	return markdown(strings.TrimSuffix(b.String(), "\n\n"))
}

func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnose(text),
	})
}

// diagnose parses text and reports its syntax error, if any.
func diagnose(text string) []protocol.Diagnostic {
	_, err := compiler.Parse(text)
	if err == nil {
		return []protocol.Diagnostic{}
	}

	var start, end protocol.Position
	var se *compiler.SyntaxError
	if errors.As(err, &se) {
		start = toPosition(se.Pos)
		end = start
		end.Character++
	}
	severity := protocol.DiagnosticSeverityError
	source := lspName
	return []protocol.Diagnostic{{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}}
}

// toPosition converts a 1-based source position to a 0-based LSP one.
func toPosition(p compiler.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(max(p.Line-1, 0)),
		Character: protocol.UInteger(max(p.Column-1, 0)),
	}
}

func markdown(s string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: s,
		},
	}
}

func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := min(int(pos.Character), len(line))

	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := min(int(pos.Character), len(line))

	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isWordChar(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
