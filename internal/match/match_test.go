package match

import (
	"regexp"
	"testing"

	"github.com/hyperifyio/hcaudit/internal/document"
)

func blocksOf(elems ...document.Element) []document.Block {
	return document.Build(document.Elements(elems)).Blocks()
}

func TestLocateEvidence_CaptionTextImage(t *testing.T) {
	blocks := blocksOf(
		document.Text("高后果区影像图"),
		document.Text("见下图"),
		document.Media(""),
	)
	ev, ok := LocateEvidence(blocks, NewAliasSet([]string{"高后果区影像图", "影像图"}), 2, nil)
	if !ok {
		t.Fatalf("expected evidence to be found")
	}
	if ev.MediaIndex != 2 || ev.CaptionIndex != 0 {
		t.Fatalf("expected caption 0 and media 2, got caption %d media %d", ev.CaptionIndex, ev.MediaIndex)
	}
	if ev.Rule != RuleWindow || ev.Label != "高后果区影像图" {
		t.Fatalf("unexpected evidence %+v", ev)
	}
}

func TestLocateEvidence_BarrierBeforeMedia(t *testing.T) {
	blocks := blocksOf(
		document.Text("入场线路图"),
		document.Text("(2) 逃生路线"),
		document.Media(""),
	)
	if ev, ok := LocateEvidence(blocks, NewAliasSet([]string{"入场线路图", "入场线路"}), 2, nil); ok {
		t.Fatalf("expected missing evidence, got %+v", ev)
	}
}

func TestLocateEvidence_BarrierNeverMatchesAcrossItems(t *testing.T) {
	for _, item := range []string{"（3）现场照片", "(4)说明", "5) 其他", "（ 6 ）"} {
		blocks := blocksOf(
			document.Text("逃生路线图"),
			document.Text(item),
			document.Media(""),
		)
		if _, ok := LocateEvidence(blocks, NewAliasSet([]string{"逃生路线图"}), 5, nil); ok {
			t.Fatalf("barrier %q should have detached the media", item)
		}
	}
}

func TestLocateEvidence_FullWidthNumeralIsBarrier(t *testing.T) {
	barriers := map[string]Barrier{
		"default": nil,
		"rules":   RegexpBarrier(regexp.MustCompile(`^\s*[（(]?\s*\d+\s*[)）]`)),
	}
	for name, barrier := range barriers {
		for _, item := range []string{"（２）逃生路线", "(３)说明", "１２）其他"} {
			blocks := blocksOf(
				document.Text("入场线路图"),
				document.Text(item),
				document.Media(""),
			)
			if ev, ok := LocateEvidence(blocks, NewAliasSet([]string{"入场线路图"}), 2, barrier); ok {
				t.Fatalf("%s barrier: %q should have detached the media, got %+v", name, item, ev)
			}
		}
	}
}

func TestLocateEvidence_AliasSymmetry(t *testing.T) {
	set := NewAliasSet([]string{"应急疏散集合点位置", "应急疏散集结点位置", "应急疏散集结点", "应急疏散集合点", "疏散集结点"})
	for _, alias := range set.All() {
		blocks := blocksOf(document.Text(alias), document.Media(""))
		ev, ok := LocateEvidence(blocks, set, 2, nil)
		if !ok {
			t.Fatalf("alias %q did not match", alias)
		}
		if ev.Label != set.Canonical || ev.MediaIndex != 1 {
			t.Fatalf("alias %q matched differently: %+v", alias, ev)
		}
	}
}

func TestLocateEvidence_WindowBoundary(t *testing.T) {
	blocks := blocksOf(
		document.Text("现场图"),
		document.Text("a"),
		document.Text("b"),
		document.Media(""),
	)
	set := NewAliasSet([]string{"高后果区现场图", "现场图"})
	if _, ok := LocateEvidence(blocks, set, 2, nil); ok {
		t.Fatalf("media at distance 3 must be outside window 2")
	}
	ev, ok := LocateEvidence(blocks, set, 3, nil)
	if !ok || ev.MediaIndex != 3 {
		t.Fatalf("expected media 3 with window 3, got %+v ok=%v", ev, ok)
	}
}

func TestLocateEvidence_OnlyLooksForward(t *testing.T) {
	blocks := blocksOf(document.Media(""), document.Text("入场线路图"))
	if _, ok := LocateEvidence(blocks, NewAliasSet([]string{"入场线路图"}), 2, nil); ok {
		t.Fatalf("media before the caption must not count")
	}
}

func TestLocateEvidence_LaterCaptionWinsWhenFirstBlocked(t *testing.T) {
	blocks := blocksOf(
		document.Text("入场线路图"),
		document.Text("（2）逃生路线图"),
		document.Media(""),
		document.Text("附：入场线路"),
		document.Media(""),
	)
	ev, ok := LocateEvidence(blocks, NewAliasSet([]string{"入场线路图", "入场线路"}), 2, nil)
	if !ok {
		t.Fatalf("expected the second caption to succeed")
	}
	if ev.CaptionIndex != 3 || ev.MediaIndex != 4 {
		t.Fatalf("expected caption 3 media 4, got %+v", ev)
	}
}

func TestLocateEvidence_NearestMediaChosen(t *testing.T) {
	blocks := blocksOf(document.Text("影像图"), document.Media(""), document.Media(""))
	ev, ok := LocateEvidence(blocks, NewAliasSet([]string{"高后果区影像图", "影像图"}), 2, nil)
	if !ok || ev.MediaIndex != 1 {
		t.Fatalf("expected nearest media 1, got %+v ok=%v", ev, ok)
	}
}

func TestLocateEvidence_EmptyAliases(t *testing.T) {
	blocks := blocksOf(document.Text("影像图"), document.Media(""))
	if _, ok := LocateEvidence(blocks, AliasSet{}, 2, nil); ok {
		t.Fatalf("empty alias set must never match")
	}
	if _, ok := LocateEvidence(blocks, AliasSet{Canonical: " ", Synonyms: []string{""}}, 2, nil); ok {
		t.Fatalf("blank aliases must never match")
	}
}

func TestLocateEvidence_CaptionInTableCell(t *testing.T) {
	blocks := blocksOf(document.Element{Table: &document.Table{Rows: [][]document.Cell{{
		{Paras: []document.Para{{Text: "入场线路图"}, {HasMedia: true}}},
	}}}})
	ev, ok := LocateEvidence(blocks, NewAliasSet([]string{"入场线路图"}), 2, nil)
	if !ok || ev.MediaIndex != 1 {
		t.Fatalf("expected media inside the same cell, got %+v ok=%v", ev, ok)
	}
}

func TestLocateEvidence_CustomBarrier(t *testing.T) {
	blocks := blocksOf(document.Text("影像图"), document.Text("注："), document.Media(""))
	set := NewAliasSet([]string{"影像图"})
	if _, ok := LocateEvidence(blocks, set, 2, RegexpBarrier(regexp.MustCompile(`^注`))); ok {
		t.Fatalf("custom barrier should block")
	}
	if _, ok := LocateEvidence(blocks, set, 2, RegexpBarrier(nil)); !ok {
		t.Fatalf("default barrier should not block a note line")
	}
}

func TestNormalize_FoldsFullWidth(t *testing.T) {
	got := Normalize("　（２）高后果区：Ａ１　")
	if got != "(2)高后果区:A1" {
		t.Fatalf("expected folded text, got %q", got)
	}
	if Normalize("人员密集型、环境敏感型。") != "人员密集型、环境敏感型。" {
		t.Fatalf("ideographic punctuation must be preserved")
	}
}

func TestAliasSet_MatchOrder(t *testing.T) {
	set := NewAliasSet([]string{"高后果区现场图", "高后果区现场图片", "现场图片", "现场图"})
	alias, ok := set.Match("附件：高后果区现场图片")
	if !ok || alias != "高后果区现场图" {
		t.Fatalf("expected first alias in list order, got %q", alias)
	}
}
