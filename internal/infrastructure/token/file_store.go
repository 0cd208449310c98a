// Package token provides access token stores keyed by merchant id.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/port"
)

// Example entry written when a token file is first created
const (
	ExampleMerchantID  = "BBFF8NBCXEMDT"
	ExampleAccessToken = "16258cd4-3c1b-3b74-1170-37ebd36bb331"
)

// FileStore keeps merchant tokens in a JSON object file.
// The file is re-read only when its modification time changes.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu       sync.Mutex
	tokens   map[string]string
	lastRead time.Time
}

// NewFileStore opens a token file, creating it with an example entry if it does not exist
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		seed := map[string]string{ExampleMerchantID: ExampleAccessToken}
		if err := s.write(seed); err != nil {
			return nil, err
		}
		logger.Info("Created access token file with example entry", zap.String("path", path))
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat token file: %w", err)
	}

	return s, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// GetAccessToken implements port.TokenLookup
func (s *FileStore) GetAccessToken(ctx context.Context, merchantID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(); err != nil {
		s.logger.Error("Failed to read access token file",
			zap.String("path", s.path),
			zap.Error(err))
	}

	token, ok := s.tokens[merchantID]
	return token, ok && token != ""
}

// PutAccessToken implements port.TokenStore
func (s *FileStore) PutAccessToken(ctx context.Context, merchantID, token string) error {
	if merchantID == "" {
		return fmt.Errorf("merchant id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(); err != nil {
		return err
	}

	next := make(map[string]string, len(s.tokens)+1)
	for k, v := range s.tokens {
		next[k] = v
	}
	next[merchantID] = token

	if err := s.write(next); err != nil {
		return err
	}

	s.tokens = next
	if info, err := os.Stat(s.path); err == nil {
		s.lastRead = info.ModTime()
	}

	s.logger.Info("Stored access token", zap.String("merchant_id", merchantID))
	return nil
}

// AccessTokens implements port.TokenStore
func (s *FileStore) AccessTokens(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(s.tokens))
	for k, v := range s.tokens {
		out[k] = v
	}
	return out, nil
}

// refreshLocked reloads the file when its modification time differs from the last read
func (s *FileStore) refreshLocked() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat token file: %w", err)
	}
	if s.tokens != nil && info.ModTime().Equal(s.lastRead) {
		return nil
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	tokens := make(map[string]string)
	if err := json.Unmarshal(content, &tokens); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}

	s.logger.Info("Loaded access token file",
		zap.String("path", s.path),
		zap.Int("merchants", len(tokens)))

	s.tokens = tokens
	s.lastRead = info.ModTime()
	return nil
}

// write replaces the file contents through a temp file and rename
func (s *FileStore) write(tokens map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	content, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

var _ port.TokenStore = (*FileStore)(nil)
