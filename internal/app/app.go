// Package app wires the audit engine to files: configuration, discovery,
// the parallel batch driver, result cache, history, metrics, report output
// and watch mode.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/hcaudit/internal/audit"
	"github.com/hyperifyio/hcaudit/internal/cache"
	"github.com/hyperifyio/hcaudit/internal/report"
	"github.com/hyperifyio/hcaudit/internal/rules"
	"github.com/hyperifyio/hcaudit/internal/store"
)

// ErrNoDocuments is returned when discovery finds nothing to audit.
var ErrNoDocuments = errors.New("no documents found")

// ErrIssuesFound is returned by Run when FailOnIssues is set and at least
// one report is not clean.
var ErrIssuesFound = errors.New("issues found")

type App struct {
	cfg     Config
	rules   *rules.Rules
	digest  string
	now     time.Time
	cache   *cache.ResultCache
	history *store.Store
	metrics *metrics
	out     io.Writer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	r := rules.Default()
	if cfg.RulesPath != "" {
		loaded, err := rules.Load(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		r = loaded
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	a := &App{cfg: cfg, rules: r, digest: r.Digest(), now: now, out: os.Stdout}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		a.cache = &cache.ResultCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	if cfg.HistoryDB != "" {
		if dir := filepath.Dir(cfg.HistoryDB); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("history dir: %w", err)
			}
		}
		s, err := store.Open(ctx, cfg.HistoryDB)
		if err != nil {
			return nil, err
		}
		a.history = s
	}
	if cfg.MetricsFile != "" {
		a.metrics = newMetrics()
	}
	return a, nil
}

// SetOutput redirects reports printed without a report directory.
func (a *App) SetOutput(w io.Writer) { a.out = w }

// Rules returns the active rule tables.
func (a *App) Rules() *rules.Rules { return a.rules }

func (a *App) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// Run discovers documents, audits them in parallel and writes every
// configured output. Per-document failures are recorded in the batch, not
// returned; Run fails only when nothing could be audited, or with
// ErrIssuesFound under FailOnIssues.
func (a *App) Run(ctx context.Context) (*report.BatchResult, error) {
	started := time.Now()
	runID := uuid.New().String()
	paths, err := discover(a.cfg.Inputs, a.cfg.Include, a.cfg.Exclude)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, strings.Join(a.cfg.Inputs, ", "))
	}
	log.Info().Str("run_id", runID).Int("documents", len(paths)).Msg("discovered documents")

	results := a.auditBatch(ctx, runID, paths)
	batch := report.NewBatch(runID, batchDirectory(a.cfg.Inputs), started.UTC().Format(time.RFC3339), results)

	for _, res := range results {
		if err := a.emit(res); err != nil {
			return batch, err
		}
	}
	if err := a.writeBatchOutputs(batch); err != nil {
		return batch, err
	}
	a.recordHistory(ctx, batch, started)
	if err := a.metrics.write(a.cfg.MetricsFile); err != nil {
		log.Warn().Err(err).Str("file", a.cfg.MetricsFile).Msg("write metrics failed")
	}

	log.Info().
		Str("run_id", runID).
		Int("total", batch.TotalDocuments).
		Int("failed", batch.FailedCount).
		Int("issues", batch.Issues()).
		Dur("elapsed", time.Since(started)).
		Msg("batch complete")

	if batch.SuccessfulCount == 0 {
		return batch, fmt.Errorf("%w: all %d documents failed", ErrDocumentUnavailable, batch.TotalDocuments)
	}
	if a.cfg.FailOnIssues && batch.Issues() > 0 {
		return batch, fmt.Errorf("%w in %d of %d documents", ErrIssuesFound, batch.Issues(), batch.TotalDocuments)
	}
	return batch, nil
}

// auditBatch audits paths with bounded parallelism. Results keep the order
// of paths; one document's failure or panic never affects another.
func (a *App) auditBatch(ctx context.Context, runID string, paths []string) []report.DocumentResult {
	results := make([]report.DocumentResult, len(paths))
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			results[i] = a.auditOne(gctx, runID, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// auditOne reads, parses and audits one document. A cached report is reused
// when both the document bytes and the rules are unchanged.
func (a *App) auditOne(ctx context.Context, runID, path string) (res report.DocumentResult) {
	started := time.Now()
	res.Document = path
	defer func() {
		if r := recover(); r != nil {
			res.Report = nil
			res.Error = fmt.Sprintf("panic: %v", r)
			log.Error().Str("run_id", runID).Str("doc", path).Interface("panic", r).Msg("audit panicked")
		}
		a.metrics.observe(res, time.Since(started))
	}()

	log.Debug().Str("run_id", runID).Str("doc", path).Msg("audit start")
	data, err := readSource(ctx, path, a.cfg.Retries)
	if err != nil {
		res.Error = err.Error()
		log.Warn().Str("run_id", runID).Str("doc", path).Err(err).Msg("document unavailable")
		return res
	}
	res.Digest = cache.Digest(data)
	res.Size = int64(len(data))

	key := cache.KeyFrom(res.Digest, a.digest)
	if a.cache != nil {
		if rep, ok, err := a.cache.Get(ctx, key); err != nil {
			log.Warn().Err(err).Msg("cache read failed")
		} else if ok {
			rep.Document = path
			res.Report = rep
			res.Cached = true
			log.Debug().Str("run_id", runID).Str("doc", path).Msg("cache hit")
			return res
		}
	}

	m, err := parseSource(path, data)
	if err != nil {
		res.Error = err.Error()
		log.Warn().Str("run_id", runID).Str("doc", path).Err(err).Msg("document unavailable")
		return res
	}
	rep := audit.Run(m, audit.Options{Document: path, Rules: a.rules, Now: a.now})
	res.Report = rep
	if a.cache != nil {
		if err := a.cache.Save(ctx, key, rep); err != nil {
			log.Warn().Err(err).Str("doc", path).Msg("cache write failed")
		}
	}
	log.Info().
		Str("run_id", runID).
		Str("doc", path).
		Str("verdict", rep.Verdict.Summary).
		Int("findings", len(rep.Findings)).
		Int("score", rep.Score).
		Dur("elapsed", time.Since(started)).
		Msg("audited")
	return res
}

// emit writes one document's report in the configured format, to the report
// directory when set and to the app output otherwise.
func (a *App) emit(res report.DocumentResult) error {
	if res.Failed() || res.Report == nil {
		return nil
	}
	format := a.cfg.Format
	if format == "" {
		format = formatDefault
	}
	if format == "pdf" {
		p := deriveReportPath(a.cfg.ReportDir, res.Document, res.Digest, format)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
		if err := report.WritePDF(res.Report, p, a.cfg.PDFFont); err != nil {
			return fmt.Errorf("write pdf %s: %w", p, err)
		}
		log.Debug().Str("doc", res.Document).Str("out", p).Msg("wrote report")
		return nil
	}

	var buf bytes.Buffer
	switch format {
	case "json":
		if err := report.RenderJSON(&buf, res.Report); err != nil {
			return err
		}
	default:
		if err := report.RenderText(&buf, res.Report); err != nil {
			return err
		}
		buf.WriteString(reproFooter(a.digest, res.Cached))
	}

	if a.cfg.ReportDir == "" {
		buf.WriteByte('\n')
		_, err := a.out.Write(buf.Bytes())
		return err
	}
	p := deriveReportPath(a.cfg.ReportDir, res.Document, res.Digest, format)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Debug().Str("doc", res.Document).Str("out", p).Msg("wrote report")
	return nil
}

func (a *App) writeBatchOutputs(batch *report.BatchResult) error {
	if a.cfg.OutputPath == "" {
		return nil
	}
	if err := report.WriteBatch(a.cfg.OutputPath, batch); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	entries := make([]manifestEntry, 0, len(batch.Results))
	for _, r := range batch.Results {
		e := manifestEntry{Path: r.Document, BLAKE3: r.Digest, Size: r.Size, Cached: r.Cached, Error: r.Error}
		if r.Report != nil {
			e.Verdict = r.Report.Verdict.Summary
			e.Score = r.Report.Score
		}
		entries = append(entries, e)
	}
	meta := manifestMeta{
		RunID:       batch.RunID,
		Version:     BuildVersion,
		RulesDigest: a.digest,
		Documents:   len(entries),
		Cache:       a.cache != nil,
		GeneratedAt: time.Now().UTC(),
	}
	p, err := writeManifest(a.cfg.OutputPath, meta, entries)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Str("manifest", p).Msg("wrote batch result")
	return nil
}

// recordHistory appends the run to the history database. Failures are
// logged; history never fails a batch.
func (a *App) recordHistory(ctx context.Context, batch *report.BatchResult, started time.Time) {
	if a.history == nil {
		return
	}
	run := store.Run{
		ID:          batch.RunID,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Directory:   batch.Directory,
		RulesDigest: a.digest,
		Total:       batch.TotalDocuments,
		Succeeded:   batch.SuccessfulCount,
		Failed:      batch.FailedCount,
		Issues:      batch.Issues(),
	}
	if err := a.history.RecordRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("record run failed")
		return
	}
	for _, r := range batch.Results {
		if err := a.history.RecordDocument(ctx, batch.RunID, documentRow(r)); err != nil {
			log.Warn().Err(err).Str("doc", r.Document).Msg("record document failed")
		}
	}
}

func documentRow(r report.DocumentResult) store.Document {
	d := store.Document{Path: r.Document, Digest: r.Digest, Cached: r.Cached, Error: r.Error}
	if r.Report != nil {
		d.Clean = r.Report.Verdict.Clean
		d.Score = r.Report.Score
		d.Findings = len(r.Report.Findings)
		d.Issues = len(r.Report.Verdict.Reasons)
	}
	return d
}

// History lists the most recent runs from the history database.
func (a *App) History(ctx context.Context, limit int) ([]store.Run, error) {
	if a.history == nil {
		return nil, errors.New("history database not configured (--history.db)")
	}
	return a.history.RecentRuns(ctx, limit)
}

// batchDirectory names the batch: the single input when there is one.
func batchDirectory(inputs []string) string {
	if len(inputs) == 1 {
		return inputs[0]
	}
	return strings.Join(inputs, ",")
}
