package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// DocumentResult is one batch entry: either a report or the error that
// prevented one.
type DocumentResult struct {
	Document string  `json:"document"`
	Digest   string  `json:"digest,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Cached   bool    `json:"cached,omitempty"`
	Report   *Report `json:"report,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Failed reports whether the document could not be audited.
func (d DocumentResult) Failed() bool { return d.Error != "" }

// BatchResult is the whole-run output.
type BatchResult struct {
	BatchProcessing bool             `json:"batch_processing"`
	RunID           string           `json:"run_id"`
	Directory       string           `json:"directory"`
	ProcessedAt     string           `json:"processed_at"`
	TotalDocuments  int              `json:"total_documents"`
	SuccessfulCount int              `json:"successful_count"`
	FailedCount     int              `json:"failed_count"`
	Results         []DocumentResult `json:"results"`
}

// NewBatch fills the counters from results.
func NewBatch(runID, dir, processedAt string, results []DocumentResult) *BatchResult {
	b := &BatchResult{
		BatchProcessing: true,
		RunID:           runID,
		Directory:       dir,
		ProcessedAt:     processedAt,
		TotalDocuments:  len(results),
		Results:         results,
	}
	for _, r := range results {
		if r.Failed() {
			b.FailedCount++
		} else {
			b.SuccessfulCount++
		}
	}
	return b
}

// Issues counts audited documents whose verdict is not clean.
func (b *BatchResult) Issues() int {
	n := 0
	for _, r := range b.Results {
		if r.Report != nil && !r.Report.Verdict.Clean {
			n++
		}
	}
	return n
}

// WriteBatch writes b as indented JSON to path, xz-compressed when path ends
// in ".xz". Parent directories are created.
func WriteBatch(path string, b *BatchResult) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if strings.HasSuffix(path, ".xz") {
		xw, err := xz.NewWriter(f)
		if err != nil {
			return fmt.Errorf("create xz writer: %w", err)
		}
		if err := encodeJSON(xw, b); err != nil {
			xw.Close()
			return err
		}
		return xw.Close()
	}
	return encodeJSON(f, b)
}

// ReadBatch loads a batch written by WriteBatch.
func ReadBatch(path string) (*BatchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		r = xr
	}
	var b BatchResult
	if err := decodeJSON(r, &b); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &b, nil
}
