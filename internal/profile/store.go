package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vango-dev/loom/internal/errors"
)

// Store persists profiles.
type Store interface {
	// Save writes the profile under its ID.
	Save(ctx context.Context, p *Profile) error

	// Load reads the profile with the given ID. It returns an error
	// matching ErrNotFound when there is none.
	Load(ctx context.Context, id string) (*Profile, error)

	// List returns the stored profile IDs, sorted.
	List(ctx context.Context) ([]string, error)
}

// FileStore stores profiles as JSON files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory profiles are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, p *Profile) error {
	if !validID(p.ID) {
		return storeFailed(fmt.Errorf("invalid profile id %q", p.ID))
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return storeFailed(err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return storeFailed(err)
	}
	path := s.path(p.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return storeFailed(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return storeFailed(err)
	}
	return nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, id string) (*Profile, error) {
	if !validID(id) {
		return nil, notFound(id)
	}
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeFailed(err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, storeFailed(err)
	}
	return &p, nil
}

// List implements Store.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeFailed(err)
	}
	var ids []string
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() || !validID(id) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func storeFailed(err error) error {
	return errors.New("L150").Wrap(err)
}

func notFound(id string) error {
	return errors.New("L151").WithDetail(fmt.Sprintf("No profile with ID %q.", id))
}
