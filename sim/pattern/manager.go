package pattern

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gridlife/lifeserver/sim/service"
)

var (
	ErrPatternNotFound = errors.New("pattern not found")
	ErrInvalidPattern  = errors.New("invalid pattern")
)

//go:embed patterns/*.yaml
var builtinFS embed.FS

// Manager handles seed pattern loading and caching. Patterns are YAML
// files; a directory on disk overlays the built-in embedded set, with disk
// files taking precedence on name collisions.
type Manager struct {
	patternDir string
	patterns   map[string]*service.Pattern
	mu         sync.RWMutex
}

// NewManager creates a pattern manager. patternDir may be empty or point
// at a missing directory, in which case only the built-in patterns are
// available.
func NewManager(patternDir string) *Manager {
	return &Manager{
		patternDir: patternDir,
		patterns:   make(map[string]*service.Pattern),
	}
}

// LoadPattern loads a pattern by ID (filename without extension).
func (m *Manager) LoadPattern(name string) (*service.Pattern, error) {
	name = strings.TrimSuffix(name, ".yaml")

	m.mu.RLock()
	if pat, exists := m.patterns[name]; exists {
		m.mu.RUnlock()
		return pat, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if pat, exists := m.patterns[name]; exists {
		return pat, nil
	}

	data, err := m.readPatternFile(name + ".yaml")
	if err != nil {
		return nil, err
	}

	pat, err := parsePattern(name, data)
	if err != nil {
		return nil, err
	}

	m.patterns[name] = pat
	return pat, nil
}

// ListPatterns returns information about all available patterns, disk and
// built-in combined, sorted by ID.
func (m *Manager) ListPatterns() ([]*service.PatternInfo, error) {
	names := make(map[string]bool)

	builtin, err := fs.Glob(builtinFS, "patterns/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list built-in patterns: %w", err)
	}
	for _, path := range builtin {
		names[strings.TrimSuffix(filepath.Base(path), ".yaml")] = true
	}

	if m.patternDir != "" {
		entries, err := os.ReadDir(m.patternDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read pattern directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
				continue
			}
			names[strings.TrimSuffix(entry.Name(), ".yaml")] = true
		}
	}

	var infos []*service.PatternInfo
	for name := range names {
		pat, err := m.LoadPattern(name)
		if err != nil {
			// Skip unparseable files rather than failing the listing.
			continue
		}

		rows, cols := len(pat.Layout), 0
		for _, line := range pat.Layout {
			if len(line) > cols {
				cols = len(line)
			}
		}
		infos = append(infos, &service.PatternInfo{
			ID:          pat.ID,
			Name:        pat.Name,
			Description: pat.Description,
			Rows:        rows,
			Columns:     cols,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// RefreshCache drops all cached patterns so the next load re-reads disk.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = make(map[string]*service.Pattern)
}

// readPatternFile reads a pattern file from the overlay directory first,
// then from the embedded set.
func (m *Manager) readPatternFile(filename string) ([]byte, error) {
	if m.patternDir != "" {
		data, err := os.ReadFile(filepath.Join(m.patternDir, filename))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read pattern file: %w", err)
		}
	}

	data, err := builtinFS.ReadFile("patterns/" + filename)
	if err != nil {
		return nil, ErrPatternNotFound
	}
	return data, nil
}

// parsePattern decodes and validates a pattern document. Layout rows must
// use only '.' (dead) and 'O' (alive) and at least one live cell must be
// present.
func parsePattern(id string, data []byte) (*service.Pattern, error) {
	var pat service.Pattern
	if err := yaml.Unmarshal(data, &pat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	pat.ID = id
	if pat.Name == "" {
		pat.Name = id
	}

	if len(pat.Layout) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidPattern)
	}
	live := 0
	for i, line := range pat.Layout {
		for _, ch := range line {
			switch ch {
			case 'O':
				live++
			case '.':
			default:
				return nil, fmt.Errorf("%w: row %d has invalid character %q", ErrInvalidPattern, i, ch)
			}
		}
	}
	if live == 0 {
		return nil, fmt.Errorf("%w: no live cells", ErrInvalidPattern)
	}

	return &pat, nil
}
