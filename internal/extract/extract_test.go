package extract

import (
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/qlcatalog/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestExtractor() *Extractor {
	return New(nil, DefaultSelectors(), testLogger)
}

func TestExtractNoShadowRoot(t *testing.T) {
	e := newTestExtractor()
	card := Card{
		Tag:   "ql-activity-card",
		Attrs: map[string]string{"path": "/catalog/course/1", "type": "Course"},
	}
	if _, ok := e.Extract(card); ok {
		t.Error("card without shadow root should not be extractable")
	}
}

func TestExtractAttrShape(t *testing.T) {
	e := newTestExtractor()
	card := Card{
		Tag: "ql-activity-card",
		Attrs: map[string]string{
			"path":  "/catalog/course/12345",
			"title": "Test Course",
			"type":  "Course",
		},
		HasShadow: true,
		ShadowHTML: `
			<div class="metadata-value">1 hour</div>
			<div class="metadata-value">Intermediate</div>
			<div class="metadata-value">5 Credits</div>`,
	}

	got, ok := e.Extract(card)
	if !ok {
		t.Fatal("expected record")
	}
	want := types.Record{
		ID:       "12345",
		Name:     "Test Course",
		Type:     "course",
		Duration: "1 hour",
		Level:    "Intermediate",
		Credits:  "5 Credits",
		Link:     "https://www.skills.google/catalog/course/12345",
	}
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestExtractNestedShape(t *testing.T) {
	e := newTestExtractor()
	card := Card{
		Tag:       "ql-activity-card",
		Attrs:     map[string]string{},
		HasShadow: true,
		ShadowHTML: `
			<a href="/catalog/lab/67890" title="Test Lab"></a>
			<ql-activity-label activity="Lab"></ql-activity-label>
			<div class="metadata-value">30 minutes</div>
			<div class="metadata-value">Fundamental</div>
			<div class="metadata-value">1 Credit</div>`,
	}

	got, ok := e.Extract(card)
	if !ok {
		t.Fatal("expected record")
	}
	want := types.Record{
		ID:       "67890",
		Name:     "Test Lab",
		Type:     "lab",
		Duration: "30 minutes",
		Level:    "Fundamental",
		Credits:  "1 Credit",
		Link:     "https://www.skills.google/catalog/lab/67890",
	}
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestExtractSkips(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		card Card
	}{
		{
			name: "no numeric id",
			card: Card{HasShadow: true, ShadowHTML: `<a href="/catalog/unknown/invalid"></a><ql-activity-label activity="Lab"></ql-activity-label>`},
		},
		{
			name: "missing label",
			card: Card{HasShadow: true, ShadowHTML: `<a href="/catalog/lab/1" title="x"></a>`},
		},
		{
			name: "missing link",
			card: Card{HasShadow: true, ShadowHTML: `<ql-activity-label activity="Lab"></ql-activity-label>`},
		},
		{
			name: "empty activity",
			card: Card{HasShadow: true, ShadowHTML: `<a href="/catalog/lab/1"></a><ql-activity-label></ql-activity-label>`},
		},
		{
			name: "attr shape without type",
			card: Card{HasShadow: true, Attrs: map[string]string{"path": "/catalog/course/9", "title": "t"}},
		},
		{
			name: "loading placeholder",
			card: Card{HasShadow: true, ShadowHTML: `<div class="skeleton"></div>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec, ok := e.Extract(tt.card); ok {
				t.Errorf("expected skip, got %+v", rec)
			}
		})
	}
}

func TestExtractMissingMetadata(t *testing.T) {
	e := newTestExtractor()
	card := Card{
		Attrs: map[string]string{
			"path":  "/catalog/course/111",
			"title": "Incomplete Course",
			"type":  "Course",
		},
		HasShadow: true,
	}

	got, ok := e.Extract(card)
	if !ok {
		t.Fatal("expected record")
	}
	if got.Duration != "" || got.Level != "" || got.Credits != "" {
		t.Errorf("expected empty metadata, got %q %q %q", got.Duration, got.Level, got.Credits)
	}
	if got.Link != "https://www.skills.google/catalog/course/111" {
		t.Errorf("unexpected link %q", got.Link)
	}
}

func TestExtractPartialMetadata(t *testing.T) {
	e := newTestExtractor()
	card := Card{
		Attrs:      map[string]string{"path": "/focuses/42", "title": "Partial", "type": "LAB"},
		HasShadow:  true,
		ShadowHTML: `<span class="metadata-value"> 45 minutes </span><span class="metadata-value">Advanced</span>`,
	}

	got, ok := e.Extract(card)
	if !ok {
		t.Fatal("expected record")
	}
	if got.Type != "lab" {
		t.Errorf("type should be lower-cased, got %q", got.Type)
	}
	if got.Duration != "45 minutes" || got.Level != "Advanced" || got.Credits != "" {
		t.Errorf("unexpected metadata: %q %q %q", got.Duration, got.Level, got.Credits)
	}
}

func TestExtractAttrShapeWins(t *testing.T) {
	e := newTestExtractor()
	card := Card{
		Attrs:     map[string]string{"path": "/catalog/course/5", "title": "From Attrs", "type": "Course"},
		HasShadow: true,
		ShadowHTML: `<a href="/catalog/lab/6" title="From Link"></a>
			<ql-activity-label activity="Lab"></ql-activity-label>`,
	}

	got, ok := e.Extract(card)
	if !ok {
		t.Fatal("expected record")
	}
	if got.ID != "5" || got.Name != "From Attrs" || got.Type != "course" {
		t.Errorf("attribute shape should take precedence, got %+v", got)
	}
}

func TestProbe(t *testing.T) {
	if s := probe(Card{Attrs: map[string]string{"path": ""}}); s != shapeAttrs {
		t.Errorf("empty path attribute still selects attrs shape, got %s", s)
	}
	if s := probe(Card{}); s != shapeNested {
		t.Errorf("expected nested shape, got %s", s)
	}
}
