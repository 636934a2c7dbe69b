package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/dicelang/compiler"
	"github.com/chazu/dicelang/vm"
)

// ---------------------------------------------------------------------------
// FileBackend: one text file per owner
//
// Layout under the root directory:
//
//	private/<user>.dice
//	server/<server>.dice
//	global.dice
//	core.dice
//
// Each line is a quoted name, a tab, and the value literal. Files are
// rewritten whole through a temporary file and a rename.
// ---------------------------------------------------------------------------

const fileExt = ".dice"

// maxRecordSize bounds one line of a record file.
const maxRecordSize = 64 << 20

// FileBackend stores each owner's variables in its own file.
type FileBackend struct {
	dir string

	mu     sync.Mutex
	tables map[string]map[string]vm.Value // path -> name -> value
}

// NewFileBackend opens (creating if needed) a record directory.
func NewFileBackend(dir string) (*FileBackend, error) {
	for _, sub := range []string{"private", "server"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", sub, err)
		}
	}
	return &FileBackend{dir: dir, tables: make(map[string]map[string]vm.Value)}, nil
}

// Dir returns the root directory.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(tier vm.Tier, owner int64) string {
	id := strconv.FormatInt(owner, 10) + fileExt
	switch tier {
	case vm.TierPrivate:
		return filepath.Join(b.dir, "private", id)
	case vm.TierServer:
		return filepath.Join(b.dir, "server", id)
	case vm.TierGlobal:
		return filepath.Join(b.dir, "global"+fileExt)
	}
	return filepath.Join(b.dir, "core"+fileExt)
}

// table returns the records of one file, reading it on first use. b.mu must be held.
func (b *FileBackend) table(path string) (map[string]vm.Value, error) {
	if t, ok := b.tables[path]; ok {
		return t, nil
	}
	t, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	b.tables[path] = t
	return t, nil
}

func (b *FileBackend) Load(tier vm.Tier, owner int64, name string) (vm.Value, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.table(b.path(tier, owner))
	if err != nil {
		return nil, false, err
	}
	v, ok := t[name]
	return v, ok, nil
}

func (b *FileBackend) Store(tier vm.Tier, owner int64, name string, v vm.Value) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := b.path(tier, owner)
	t, err := b.table(path)
	if err != nil {
		return err
	}
	prev, had := t[name]
	t[name] = v
	if err := writeRecords(path, t); err != nil {
		if had {
			t[name] = prev
		} else {
			delete(t, name)
		}
		return err
	}
	return nil
}

func (b *FileBackend) Delete(tier vm.Tier, owner int64, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := b.path(tier, owner)
	t, err := b.table(path)
	if err != nil {
		return err
	}
	prev, had := t[name]
	if !had {
		return nil
	}
	delete(t, name)
	if err := writeRecords(path, t); err != nil {
		t[name] = prev
		return err
	}
	return nil
}

func (b *FileBackend) Names(tier vm.Tier, owner int64) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.table(b.path(tier, owner))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Each visits every record file under the root directory.
func (b *FileBackend) Each(fn func(Record) error) error {
	b.mu.Lock()
	var recs []Record
	for _, f := range []struct {
		tier vm.Tier
		glob string
	}{
		{vm.TierPrivate, filepath.Join(b.dir, "private", "*"+fileExt)},
		{vm.TierServer, filepath.Join(b.dir, "server", "*"+fileExt)},
		{vm.TierGlobal, filepath.Join(b.dir, "global"+fileExt)},
		{vm.TierCore, filepath.Join(b.dir, "core"+fileExt)},
	} {
		paths, err := filepath.Glob(f.glob)
		if err != nil {
			b.mu.Unlock()
			return err
		}
		for _, path := range paths {
			owner := vm.GlobalOwner
			if f.tier == vm.TierPrivate || f.tier == vm.TierServer {
				id, err := strconv.ParseInt(strings.TrimSuffix(filepath.Base(path), fileExt), 10, 64)
				if err != nil {
					log.Warningf("skipping %s: not an owner file", path)
					continue
				}
				owner = id
			}
			t, err := b.table(path)
			if err != nil {
				b.mu.Unlock()
				return err
			}
			for name, v := range t {
				recs = append(recs, Record{Tier: f.tier, Owner: owner, Name: name, Value: v})
			}
		}
	}
	b.mu.Unlock()

	sortRecords(recs)
	for _, r := range recs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }

// readRecords parses a record file. A missing file is empty; lines that do
// not parse are logged and skipped.
func readRecords(path string) (map[string]vm.Value, error) {
	t := make(map[string]vm.Value)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, v, err := parseRecord(line)
		if err != nil {
			log.Warningf("%s:%d: skipping corrupt record: %v", path, lineNo, err)
			continue
		}
		t[name] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return t, nil
}

func parseRecord(line string) (string, vm.Value, error) {
	quoted, literal, ok := strings.Cut(line, "\t")
	if !ok {
		return "", nil, errors.New("missing tab separator")
	}
	name, err := strconv.Unquote(quoted)
	if err != nil {
		return "", nil, fmt.Errorf("bad name %s", quoted)
	}
	v, err := vm.DecodeLiteral(literal)
	if err != nil {
		return "", nil, err
	}
	return name, v, nil
}

func formatRecord(name string, v vm.Value) string {
	return compiler.Quote(name) + "\t" + vm.EncodeLiteral(v) + "\n"
}

// writeRecords replaces path with the records of t, sorted by name.
func writeRecords(path string, t map[string]vm.Value) error {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*"+fileExt)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	w := bufio.NewWriter(tmp)
	for _, name := range names {
		w.WriteString(formatRecord(name, t[name]))
	}
	err = w.Flush()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}
