package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/hcaudit/internal/document"
	"github.com/hyperifyio/hcaudit/internal/docx"
	"github.com/hyperifyio/hcaudit/internal/htmldoc"
)

// ErrDocumentUnavailable is returned when a source cannot be opened or
// parsed. It aborts that document only.
var ErrDocumentUnavailable = errors.New("document unavailable")

// readSource reads path, retrying transient failures such as a file still
// being copied or held by another process. Missing files and permission
// errors fail at once.
func readSource(ctx context.Context, path string, attempts int) ([]byte, error) {
	if attempts < 1 {
		attempts = 1
	}
	var data []byte
	err := retry.Do(
		func() error {
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if len(b) == 0 {
				return fmt.Errorf("%s is empty", path)
			}
			data = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Str("doc", path).Uint("attempt", n+1).Err(err).Msg("retrying read")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDocumentUnavailable, path, err)
	}
	return data, nil
}

// parseSource picks the reader by extension.
func parseSource(path string, data []byte) (*document.Model, error) {
	var src document.Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		d, err := docx.Read(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDocumentUnavailable, path, err)
		}
		src = d
	case ".html", ".htm":
		d, err := htmldoc.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDocumentUnavailable, path, err)
		}
		src = d
	default:
		return nil, fmt.Errorf("%w: %s: unsupported file type", ErrDocumentUnavailable, path)
	}
	return document.Build(src), nil
}
