package match

import (
	"regexp"
	"testing"

	"github.com/hyperifyio/hcaudit/internal/document"
)

var (
	bigTitle  = regexp.MustCompile(`^\s*[（(]?[一二三四五六七八九十]+[)）]?[、.．]`)
	basicInfo = regexp.MustCompile(`^\s*[（(]?[一二三四五六七八九十]+[)）]?[、.．]\s*高后果区基本信息\s*$`)
)

func TestSectionRange_BoundedByNextTitle(t *testing.T) {
	blocks := blocksOf(
		document.Text("封面"),
		document.Text("一、高后果区基本信息"),
		document.Text("说明"),
		document.Text("二、风险评价"),
		document.Media(""),
	)
	sec, ok := SectionRange(blocks, basicInfo, bigTitle)
	if !ok {
		t.Fatalf("expected section")
	}
	if sec.Start != 1 || sec.End != 3 || sec.Heading != "一、高后果区基本信息" {
		t.Fatalf("unexpected section %+v", sec)
	}
	if _, ok := LocateInSection(blocks, sec, "高后果区影像图"); ok {
		t.Fatalf("media after the next title must not count")
	}
}

func TestLocateInSection_AnyMediaInside(t *testing.T) {
	blocks := blocksOf(
		document.Text("一、高后果区基本信息"),
		document.Text("a"),
		document.Text("b"),
		document.Text("c"),
		document.Text("d"),
		document.Media(""),
	)
	sec, ok := SectionRange(blocks, basicInfo, bigTitle)
	if !ok || sec.End != len(blocks) {
		t.Fatalf("expected section to run to the end, got %+v", sec)
	}
	ev, ok := LocateInSection(blocks, sec, "高后果区影像图")
	if !ok {
		t.Fatalf("expected section evidence")
	}
	if ev.MediaIndex != 5 || ev.CaptionIndex != 0 || ev.Rule != RuleSection {
		t.Fatalf("unexpected evidence %+v", ev)
	}
	if ev.CaptionText != "一、高后果区基本信息（检测到章节内图片）" {
		t.Fatalf("unexpected caption %q", ev.CaptionText)
	}
}

func TestSectionRange_Absent(t *testing.T) {
	blocks := blocksOf(document.Text("二、风险评价"), document.Media(""))
	if _, ok := SectionRange(blocks, basicInfo, bigTitle); ok {
		t.Fatalf("expected no section")
	}
	if _, ok := SectionRange(blocks, nil, bigTitle); ok {
		t.Fatalf("nil start pattern must not match")
	}
}
