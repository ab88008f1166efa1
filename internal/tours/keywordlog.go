package tours

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KeywordRecorder appends a submitted keyword group to a side log.
type KeywordRecorder interface {
	Record(keywords string) error
}

// KeywordLog appends one line per submission to a plain text file.
type KeywordLog struct {
	path string
	mu   sync.Mutex
}

func NewKeywordLog(path string) *KeywordLog {
	return &KeywordLog{path: path}
}

func (l *KeywordLog) Record(keywords string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating keyword log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening keyword log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(keywords + "\n"); err != nil {
		return fmt.Errorf("writing keyword log: %w", err)
	}
	return nil
}
