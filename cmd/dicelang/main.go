// dicelang CLI - run dice expressions once, interactively, or as a language server
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/tliron/commonlog"

	"github.com/chazu/dicelang/compiler"
	"github.com/chazu/dicelang/config"
	"github.com/chazu/dicelang/engine"
	"github.com/chazu/dicelang/lsp"
	"github.com/chazu/dicelang/storage"
	"github.com/chazu/dicelang/vm"

	_ "github.com/tliron/commonlog/simple"
)

const (
	historyFile = ".dicelang_history"
	promptMain  = "dice > "
	promptCont  = "  ... "
)

func main() {
	os.Exit(run())
}

func run() int {
	source := flag.String("e", "", "Execute `source` once and print the result")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	lspMode := flag.Bool("lsp", false, "Start language server on stdio")
	dumpPath := flag.String("dump", "", "Write a snapshot of every stored variable to `file`")
	restorePath := flag.String("restore", "", "Load stored variables from a snapshot `file`")
	listTier := flag.String("list", "", "List the variables stored in `tier` (private, server, global, core)")
	configPath := flag.String("config", "", "Path to dicelang.toml (default: search upward from the working directory)")
	userID := flag.Int64("user", 0, "User id to execute as")
	serverID := flag.Int64("server", 0, "Server id to execute in")
	verbosity := flag.Int("v", 0, "Log verbosity (0 = errors only)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dicelang [options]\n\n")
		fmt.Fprintf(os.Stderr, "Evaluates dicelang programs against persistent variable storage.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dicelang                        # Start REPL\n")
		fmt.Fprintf(os.Stderr, "  dicelang -e '4d6h3'             # Roll once\n")
		fmt.Fprintf(os.Stderr, "  dicelang -list global           # Show global variables\n")
		fmt.Fprintf(os.Stderr, "  dicelang -dump vars.cbor        # Back up storage\n")
		fmt.Fprintf(os.Stderr, "  dicelang -lsp                   # Serve editors over stdio\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	configureLog(cfg, *verbosity)

	e, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer e.Close()

	switch {
	case *restorePath != "":
		return restore(e, *restorePath)
	case *dumpPath != "":
		return dump(e, *dumpPath)
	case *listTier != "":
		if err := listNames(os.Stdout, e, *listTier, *userID, *serverID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	case *lspMode:
		if err := lsp.NewServer(e, *userID, *serverID).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "LSP error: %v\n", err)
			return 1
		}
		return 0
	case *source != "" && !*interactive:
		if err := execute(os.Stdout, e, *source, *userID, *serverID); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		return 0
	}

	if *source != "" {
		if err := execute(os.Stdout, e, *source, *userID, *serverID); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
	return runREPL(e, *userID, *serverID)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.FindAndLoad(wd)
}

func configureLog(cfg *config.Config, verbosity int) {
	verbosity = max(verbosity, cfg.Log.Verbosity)
	if path := cfg.LogPath(); path != "" {
		commonlog.Configure(verbosity, &path)
		return
	}
	commonlog.Configure(verbosity, nil)
}

// execute runs one program and writes its print output followed by the
// result.
func execute(w io.Writer, e *engine.Engine, src string, userID, serverID int64) error {
	res, err := e.Execute(src, userID, serverID)
	if res.Output != "" {
		fmt.Fprint(w, res.Output)
		if !strings.HasSuffix(res.Output, "\n") {
			fmt.Fprintln(w)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, vm.Repr(res.Value))
	return nil
}

func listNames(w io.Writer, e *engine.Engine, tierName string, userID, serverID int64) error {
	tier, err := vm.ParseTier(strings.TrimSpace(tierName))
	if err != nil {
		return err
	}
	owner := vm.GlobalOwner
	switch tier {
	case vm.TierPrivate:
		owner = userID
	case vm.TierServer:
		owner = serverID
	}
	names, err := e.ListNames(tier, owner)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintf(w, "no %s variables\n", tier)
		return nil
	}
	fmt.Fprintln(w, strings.Join(names, ", "))
	return nil
}

func dump(e *engine.Engine, path string) int {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	n, err := storage.Dump(e.Store().Backend(), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: dump %s: %v\n", path, err)
		return 1
	}
	fmt.Printf("Wrote %d variables to %s\n", n, path)
	return 0
}

func restore(e *engine.Engine, path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer f.Close()
	n, err := storage.Restore(e.Store().Backend(), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: restore %s: %v\n", path, err)
		return 1
	}
	fmt.Printf("Restored %d variables from %s\n", n, path)
	return 0
}

// runREPL starts an interactive read-eval-print loop
func runREPL(e *engine.Engine, userID, serverID int64) int {
	fmt.Println("dicelang REPL (type !quit to exit, !help for commands)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		e.Close()
		os.Exit(130)
	}()

	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, "!") {
			if quit := handleREPLCommand(os.Stdout, e, trimmed, userID, serverID); quit {
				return 0
			}
			continue
		}
		if err := execute(os.Stdout, e, code, userID, serverID); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// readInput reads one program, prompting for more lines while the input so
// far ends in the middle of an expression.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), "!") {
			return src, true
		}
		if _, perr := compiler.Parse(src); compiler.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// handleREPLCommand handles REPL meta-commands and reports whether the REPL
// should exit.
func handleREPLCommand(w io.Writer, e *engine.Engine, cmd string, userID, serverID int64) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case "!quit", "!exit":
		return true
	case "!help":
		fmt.Fprintln(w, "REPL Commands:")
		fmt.Fprintln(w, "  !list <tier>      List stored variables (private, server, global, core)")
		fmt.Fprintln(w, "  !builtins         List builtin functions")
		fmt.Fprintln(w, "  !prune            Run a cache sweep now")
		fmt.Fprintln(w, "  !quit             Exit REPL")
	case "!list":
		if len(fields) != 2 {
			fmt.Fprintln(w, "usage: !list <tier>")
			return false
		}
		if err := listNames(w, e, fields[1], userID, serverID); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	case "!builtins":
		fmt.Fprintln(w, strings.Join(e.Interpreter().Builtins().Names(), ", "))
	case "!prune":
		st := e.Pruner().SweepNow()
		fmt.Fprintf(w, "examined %d, evicted %d in %s\n", st.Examined, st.Evicted, st.SweepDuration)
	default:
		fmt.Fprintf(w, "unknown command %s. Type !help for commands.\n", fields[0])
	}
	return false
}
