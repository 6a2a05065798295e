package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/hcaudit/internal/report"
)

const reportHTML = `<html><body>
<p>编号：CPY-0790-A</p>
<p>编制时间：2024年3月</p>
<p>一、高后果区基本信息</p>
<table>
<tr><td>高后果区编号</td><td>CPY-0790-A</td></tr>
<tr><td>高后果区类型</td><td>人员密集型</td></tr>
<tr><td>高后果区等级</td><td>Ⅱ级</td></tr>
<tr><td>专职区长</td><td>张三</td></tr>
<tr><td>识别时间</td><td>2024年3月</td></tr>
</table>
<p><img src="map.png"></p>
<p>（1）高后果区现场图</p><p><img src="a.png"></p>
<p>（2）入场线路图</p><p><img src="b.png"></p>
<p>（3）逃生路线图</p><p><img src="c.png"></p>
<p>（4）应急疏散集结点</p><p><img src="d.png"></p>
<table>
<tr><td>高后果区风险评价结果表</td></tr>
<tr><td>失效可能性：0.2 失效后果值：5 风险值：1.0 风险等级：低</td></tr>
<tr><td>风险评价时间：2024年5月</td></tr>
</table>
<p>专职区（段）长：张三，负责巡护</p>
<p>高后果区管道电位测试结果</p>
<table><tr><td>测试桩号</td><td>电位(V)</td></tr><tr><td>K1</td><td>-0.95</td></tr></table>
</body></html>`

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.html":          reportHTML,
		"sub/b.htm":       strings.Replace(reportHTML, "-0.95", "-0.5", 1),
		"broken.docx":     "not a zip archive",
		"~$a.docx":        "lock",
		"notes.txt":       "ignored",
		"archive/old.htm": reportHTML,
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Inputs = []string{dir}
	cfg.Exclude = []string{"archive/**"}
	cfg.Now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg.Retries = 1
	return cfg
}

func TestDiscover_FiltersAndSorts(t *testing.T) {
	dir := writeFixtures(t)
	paths, err := discover([]string{dir}, includeDefault, []string{"archive/**"})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.html"),
		filepath.Join(dir, "broken.docx"),
		filepath.Join(dir, "sub", "b.htm"),
	}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("expected %s at %d, got %s", want[i], i, paths[i])
		}
	}

	if _, err := discover([]string{filepath.Join(dir, "missing")}, includeDefault, nil); !errors.Is(err, ErrDocumentUnavailable) {
		t.Fatalf("expected ErrDocumentUnavailable for missing input, got %v", err)
	}
	if _, err := discover([]string{dir}, []string{"[a-"}, nil); err == nil {
		t.Fatalf("expected invalid glob error")
	}
}

func TestRun_BatchOutputs(t *testing.T) {
	dir := writeFixtures(t)
	out := t.TempDir()
	cfg := testConfig(dir)
	cfg.Format = "json"
	cfg.OutputPath = filepath.Join(out, "batch.json.xz")
	cfg.HistoryDB = filepath.Join(out, "history.db")
	cfg.MetricsFile = filepath.Join(out, "hcaudit.prom")
	cfg.CacheDir = filepath.Join(out, "cache")

	ctx := context.Background()
	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	var stdout bytes.Buffer
	a.SetOutput(&stdout)

	batch, err := a.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if batch.TotalDocuments != 3 || batch.FailedCount != 1 || batch.SuccessfulCount != 2 {
		t.Fatalf("unexpected counts: total=%d failed=%d ok=%d", batch.TotalDocuments, batch.FailedCount, batch.SuccessfulCount)
	}
	broken := batch.Results[1]
	if !broken.Failed() || !strings.Contains(broken.Error, ErrDocumentUnavailable.Error()) {
		t.Fatalf("expected broken.docx to be unavailable, got %+v", broken)
	}
	if strings.Count(stdout.String(), `"document":`) != 2 {
		t.Fatalf("expected two JSON reports on output, got:\n%s", stdout.String())
	}

	got, err := report.ReadBatch(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read batch: %v", err)
	}
	if got.RunID != batch.RunID || len(got.Results) != 3 {
		t.Fatalf("batch file mismatch: %+v", got)
	}
	manifest, err := os.ReadFile(deriveManifestSidecarPath(cfg.OutputPath))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(manifest), `"blake3": "`+batch.Results[0].Digest+`"`) {
		t.Fatalf("expected manifest to list digests, got:\n%s", manifest)
	}
	prom, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{`hcaudit_documents_total{status="failed"} 1`, "hcaudit_findings_total", "hcaudit_document_duration_seconds_count 3"} {
		if !strings.Contains(string(prom), want) {
			t.Fatalf("expected %q in metrics, got:\n%s", want, prom)
		}
	}
	runs, err := a.History(ctx, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != batch.RunID || runs[0].Failed != 1 {
		t.Fatalf("unexpected history: %+v", runs)
	}

	second, err := a.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Results[0].Cached || !second.Results[2].Cached {
		t.Fatalf("expected cache hits on second run")
	}
	if second.Results[0].Report.Score != batch.Results[0].Report.Score {
		t.Fatalf("cached report differs: %d vs %d", second.Results[0].Report.Score, batch.Results[0].Report.Score)
	}
}

func TestRun_NoDocuments(t *testing.T) {
	cfg := testConfig(t.TempDir())
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	if _, err := a.Run(context.Background()); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestRun_AllUnavailable(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.docx")
	if err := os.WriteFile(p, []byte("junk"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err := New(context.Background(), testConfig(p))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	batch, err := a.Run(context.Background())
	if !errors.Is(err, ErrDocumentUnavailable) {
		t.Fatalf("expected ErrDocumentUnavailable, got %v", err)
	}
	if batch == nil || batch.FailedCount != 1 {
		t.Fatalf("expected the batch to still be returned")
	}
}

func TestRun_FailOnIssues(t *testing.T) {
	dir := writeFixtures(t)
	cfg := testConfig(filepath.Join(dir, "sub"))
	cfg.FailOnIssues = true
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	a.SetOutput(&bytes.Buffer{})
	if _, err := a.Run(context.Background()); !errors.Is(err, ErrIssuesFound) {
		t.Fatalf("expected ErrIssuesFound, got %v", err)
	}
}

func TestRun_TextReportsToDirectory(t *testing.T) {
	dir := writeFixtures(t)
	out := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "a.html"))
	cfg.ReportDir = out
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	batch, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	p := deriveReportPath(out, batch.Results[0].Document, batch.Results[0].Digest, "text")
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.HasPrefix(string(b), "文档：") || !strings.Contains(string(b), "Reproducibility: version=") {
		t.Fatalf("unexpected text report:\n%s", b)
	}
}

func TestAuditOne_MissingFile(t *testing.T) {
	a := &App{cfg: DefaultConfig()}
	res := a.auditOne(context.Background(), "run", filepath.Join(t.TempDir(), "gone.docx"))
	if !res.Failed() || res.Report != nil {
		t.Fatalf("expected failure for missing file, got %+v", res)
	}
	if !strings.Contains(res.Error, "document unavailable") {
		t.Fatalf("expected unavailable error, got %q", res.Error)
	}
}

func TestDeriveReportPath(t *testing.T) {
	got := deriveReportPath("out", "/x/报告 一.docx", "0123456789abcdef", "json")
	want := filepath.Join("out", "报告_一-0123456789ab.json")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := deriveReportPath("", "a.html", "", "pdf"); got != filepath.Join("reports", "a.pdf") {
		t.Fatalf("expected default dir, got %s", got)
	}
}
