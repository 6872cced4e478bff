// Package file provides file-based persistence for templates and workflows.
// It backs local development and the test suite; one JSON document per
// entity.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flowlineio/flowline/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system.
type Persistence struct {
	root string

	templateRepo *TemplateRepository
	workflowRepo *WorkflowRepository
	accountRepo  *AccountRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	store := &store{root: cleanRoot}

	return &Persistence{
		root:         cleanRoot,
		templateRepo: &TemplateRepository{store: store},
		workflowRepo: &WorkflowRepository{store: store},
		accountRepo:  &AccountRepository{store: store},
	}
}

func (p *Persistence) Templates() persistence.TemplateRepository { return p.templateRepo }

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.workflowRepo }

func (p *Persistence) Accounts() persistence.AccountRepository { return p.accountRepo }

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. There is nothing to clean up for
// file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// store serializes all file access. File persistence is single-process; a
// plain mutex is its row lock.
type store struct {
	root string
	mu   sync.Mutex
}

func (s *store) read(relPath string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.root, relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s: %w", relPath, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", relPath, err)
	}

	return true, nil
}

func (s *store) write(relPath string, in any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullPath := filepath.Join(s.root, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", relPath, err)
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}

	return nil
}

func (s *store) remove(relPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.root, relPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", relPath, err)
	}

	return nil
}

func (s *store) list(dir string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}

	return names, nil
}
