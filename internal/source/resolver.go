package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mabhi256/livetree/internal/logger"
	"go.uber.org/zap"
)

var log = logger.NewNamed("source")

type file struct {
	ref      string
	fullPath string
	content  string
	loaded   bool
	missing  bool
}

// Resolver maps the file names a program refers to onto files in a set of
// directories, caches their content and hands out file ids starting at 1.
type Resolver struct {
	dirs []string

	mu    sync.Mutex
	byRef map[string]int
	files []*file
}

func NewResolver(dirs ...string) *Resolver {
	return &Resolver{
		dirs:  dirs,
		byRef: make(map[string]int),
	}
}

// Register adds an in-memory source under ref and returns its file id
func (r *Resolver) Register(ref, content string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.fileIDLocked(ref)
	f := r.files[id-1]
	f.fullPath = ref
	f.content = content
	f.loaded = true
	f.missing = false
	return id
}

// FileID returns the id for ref, assigning one on first use. The empty ref has id 0.
func (r *Resolver) FileID(ref string) int {
	if ref == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fileIDLocked(ref)
}

func (r *Resolver) fileIDLocked(ref string) int {
	if id, ok := r.byRef[ref]; ok {
		return id
	}
	r.files = append(r.files, &file{ref: ref})
	id := len(r.files)
	r.byRef[ref] = id
	return id
}

// Ref returns the name the file was referred to by
func (r *Resolver) Ref(id int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fileLocked(id)
	if !ok {
		return "", false
	}
	return f.ref, true
}

// Path returns the full path of the file
func (r *Resolver) Path(id int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fileLocked(id)
	if !ok || !r.resolveLocked(f) {
		return "", false
	}
	return f.fullPath, true
}

// Content returns the text of the file
func (r *Resolver) Content(id int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fileLocked(id)
	if !ok {
		return "", false
	}
	return r.loadLocked(f)
}

func (r *Resolver) ContentByRef(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	return r.Content(r.FileID(ref))
}

// Line returns the 0-based line of the file, without its line break
func (r *Resolver) Line(ref string, index int) (string, bool) {
	content, ok := r.ContentByRef(ref)
	if !ok || index < 0 {
		return "", false
	}
	lines := strings.Split(content, "\n")
	if index >= len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[index], "\r"), true
}

func (r *Resolver) fileLocked(id int) (*file, bool) {
	if id < 1 || id > len(r.files) {
		return nil, false
	}
	return r.files[id-1], true
}

func (r *Resolver) resolveLocked(f *file) bool {
	if f.fullPath != "" {
		return true
	}
	if f.missing {
		return false
	}

	for _, candidate := range r.candidates(f.ref) {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(candidate); err == nil {
			candidate = abs
		}
		f.fullPath = candidate
		return true
	}

	log.Debug("source not found", zap.String("ref", f.ref), zap.Strings("dirs", r.dirs))
	f.missing = true
	return false
}

func (r *Resolver) candidates(ref string) []string {
	if filepath.IsAbs(ref) {
		return []string{ref}
	}
	out := make([]string, 0, len(r.dirs)+1)
	for _, dir := range r.dirs {
		out = append(out, filepath.Join(dir, ref))
	}
	return append(out, ref)
}

func (r *Resolver) loadLocked(f *file) (string, bool) {
	if f.loaded {
		return f.content, true
	}
	if !r.resolveLocked(f) {
		return "", false
	}

	data, err := os.ReadFile(f.fullPath)
	if err != nil {
		log.Warn("failed to read source", zap.String("path", f.fullPath), zap.Error(fmt.Errorf("read: %w", err)))
		return "", false
	}
	f.content = string(data)
	f.loaded = true
	return f.content, true
}
