package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Ref points at a stored artifact object by content hash.
type Ref struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	SHA256  string `json:"sha256"`
}

// Store is a content-addressed archive of generated artifacts. Objects are
// sharded by the first two hash characters so a long-lived archive stays
// browsable.
type Store struct {
	BasePath string
}

// NewStore creates the archive directory layout under basePath.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required")
	}
	if err := os.MkdirAll(filepath.Join(basePath, "objects"), 0755); err != nil {
		return nil, err
	}
	return &Store{BasePath: basePath}, nil
}

// Save stores the artifact as JSON keyed by the SHA256 of its serialized
// form. Saving the same artifact twice is idempotent.
func (s *Store) Save(a *Artifact) (Ref, error) {
	if a == nil {
		return Ref{}, fmt.Errorf("artifact is required")
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return Ref{}, err
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	dir := filepath.Join(s.BasePath, "objects", hash[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Ref{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, hash+".json"), data, 0644); err != nil {
		return Ref{}, err
	}

	return Ref{ID: a.ID, Version: a.Version, SHA256: hash}, nil
}

// Load reads back a stored artifact by its content hash.
func (s *Store) Load(hash string) (*Artifact, error) {
	if len(hash) < 3 {
		return nil, fmt.Errorf("invalid object hash %q", hash)
	}
	path := filepath.Join(s.BasePath, "objects", hash[:2], hash+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
