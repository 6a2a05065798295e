package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/hyperifyio/hcaudit/internal/report"
)

// ResultCache stores audit reports keyed by document digest and rules digest,
// so an unchanged document audited under unchanged rules is not re-parsed.
type ResultCache struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the cache directory and 0600
	// on entries.
	StrictPerms bool
}

// Entry is the on-disk form of one cached report.
type Entry struct {
	Key     string         `json:"key"`
	SavedAt time.Time      `json:"saved_at"`
	Report  *report.Report `json:"report"`
}

func (c *ResultCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// Digest returns the hex BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// KeyFrom builds a cache key from a document digest and a rules digest.
func KeyFrom(documentDigest, rulesDigest string) string {
	return Digest([]byte(documentDigest + "\n\n" + rulesDigest))
}

func (c *ResultCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached report for key. A missing or unreadable entry is a
// miss, not an error.
func (c *ResultCache) Get(_ context.Context, key string) (*report.Report, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil || e.Key != key || e.Report == nil {
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return e.Report, true, nil
}

// Save writes r under key, replacing any previous entry atomically.
func (c *ResultCache) Save(_ context.Context, key string, r *report.Report) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	b, err := json.Marshal(Entry{Key: key, SavedAt: time.Now().UTC(), Report: r})
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	p := c.pathFor(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, mode); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
