// Package extract turns item container snapshots into catalog records.
package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/qlcatalog/internal/types"
)

// DefaultOrigin is the site the catalog paths are relative to.
const DefaultOrigin = "https://www.skills.google"

var idPattern = regexp.MustCompile(`/(\d+)`)

// Selectors locate the pieces of a card inside its shadow tree.
type Selectors struct {
	Link      string
	Label     string
	LabelAttr string
	Metadata  string
}

// DefaultSelectors returns the selectors matching the current catalog markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Link:      "a",
		Label:     "ql-activity-label",
		LabelAttr: "activity",
		Metadata:  ".metadata-value",
	}
}

// Extractor builds records from card snapshots. It is stateless apart from
// its configuration and safe for concurrent use.
type Extractor struct {
	origin *url.URL
	sel    Selectors
	logger *slog.Logger
}

// New creates an Extractor resolving links against origin.
func New(origin *url.URL, sel Selectors, logger *slog.Logger) *Extractor {
	if origin == nil {
		origin, _ = url.Parse(DefaultOrigin)
	}
	return &Extractor{
		origin: origin,
		sel:    sel,
		logger: logger.With("component", "extractor"),
	}
}

// Extract returns the record described by card. The second result is false
// when the card cannot produce a valid record: no shadow root, missing link
// or label, or no id/type. Skips are normal and not errors.
func (e *Extractor) Extract(card Card) (types.Record, bool) {
	if !card.HasShadow {
		e.logger.Debug("card has no shadow root", "tag", card.Tag, "attrs", len(card.Attrs))
		return types.Record{}, false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(card.ShadowHTML))
	if err != nil {
		e.logger.Debug("parse shadow tree", "tag", card.Tag, "error", err)
		return types.Record{}, false
	}

	var rec types.Record
	var path string

	switch probe(card) {
	case shapeAttrs:
		path, _ = card.Attr("path")
		rec.Name, _ = card.Attr("title")
		typ, _ := card.Attr("type")
		rec.Type = strings.ToLower(typ)

	case shapeNested:
		link := doc.Find(e.sel.Link).First()
		label := doc.Find(e.sel.Label).First()
		if link.Length() == 0 || label.Length() == 0 {
			return types.Record{}, false
		}
		path, _ = link.Attr("href")
		rec.Name, _ = link.Attr("title")
		rec.Type = strings.ToLower(label.AttrOr(e.sel.LabelAttr, ""))
	}

	rec.ID = matchID(path)
	if !rec.Valid() {
		return types.Record{}, false
	}
	rec.Link = e.resolve(path)

	// Positional: duration, level, credits.
	meta := doc.Find(e.sel.Metadata)
	fields := []*string{&rec.Duration, &rec.Level, &rec.Credits}
	meta.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= len(fields) {
			return false
		}
		*fields[i] = strings.TrimSpace(s.Text())
		return true
	})

	return rec, true
}

// resolve makes path absolute against the site origin.
func (e *Extractor) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimRight(e.origin.String(), "/") + path
	}
	return e.origin.ResolveReference(ref).String()
}

func matchID(path string) string {
	m := idPattern.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[1]
}
