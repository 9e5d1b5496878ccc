// Package snapshot replays saved catalog pages through the scrape engine.
//
// A snapshot is the page HTML with shadow roots serialized as declarative
// templates (<template shadowrootmode="open">), as produced by
// getHTML({serializableShadowRoots: true}) or most "save rendered page"
// tools. Each file is one page of results; Advance moves to the next file.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/qlcatalog/internal/config"
	"github.com/IshaanNene/qlcatalog/internal/engine"
	"github.com/IshaanNene/qlcatalog/internal/extract"
	"github.com/IshaanNene/qlcatalog/internal/types"
)

const shadowXPath = `./template[@shadowrootmode or @shadowroot]`

// Page is one parsed snapshot file.
type Page struct {
	Path string

	// Found is false when the results region or its shadow root is missing.
	Found bool
	Cards []extract.Card

	HasMarker bool
	Marker    string

	// HasNext reports an enabled next-page control.
	HasNext bool

	// Canonical is the page's canonical URL, if it declares one.
	Canonical string
}

// Parse reads one snapshot document.
func Parse(doc *html.Node, path string, sel config.SelectorConfig) (*Page, error) {
	p := &Page{Path: path}

	if link := htmlquery.FindOne(doc, `//link[@rel="canonical"]`); link != nil {
		p.Canonical = htmlquery.SelectAttr(link, "href")
	}

	container, err := queryOne(doc, "//"+cssToXPath(sel.ResultsContainer))
	if err != nil {
		return nil, err
	}
	if container == nil {
		return p, nil
	}
	root := htmlquery.FindOne(container, shadowXPath)
	if root == nil {
		return p, nil
	}
	p.Found = true

	cards, err := htmlquery.QueryAll(root, ".//"+cssToXPath(sel.Card))
	if err != nil {
		return nil, fmt.Errorf("card selector %q: %w", sel.Card, err)
	}
	for _, n := range cards {
		p.Cards = append(p.Cards, cardOf(n))
	}

	marker, err := queryOne(root, ".//"+cssToXPath(sel.PaginationMarker))
	if err != nil {
		return nil, err
	}
	if marker != nil {
		p.HasMarker = true
		p.Marker = strings.TrimSpace(htmlquery.InnerText(marker))
	}

	next, err := queryOne(root, ".//"+cssToXPath(sel.NextPage))
	if err != nil {
		return nil, err
	}
	p.HasNext = next != nil && !hasAttr(next, sel.DisabledAttr)

	return p, nil
}

// Load parses the snapshot file at path.
func Load(path string, sel config.SelectorConfig) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Parse(doc, path, sel)
}

func cardOf(n *html.Node) extract.Card {
	c := extract.Card{
		Tag:   strings.ToLower(n.Data),
		Attrs: make(map[string]string, len(n.Attr)),
	}
	for _, a := range n.Attr {
		c.Attrs[a.Key] = a.Val
	}
	if tmpl := htmlquery.FindOne(n, shadowXPath); tmpl != nil {
		c.HasShadow = true
		c.ShadowHTML = htmlquery.OutputHTML(tmpl, false)
	}
	return c
}

func queryOne(top *html.Node, expr string) (*html.Node, error) {
	n, err := htmlquery.Query(top, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	return n, nil
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// cssToXPath converts the simple selectors used for the catalog markup
// (tag, .class, tag.class.class) into an XPath step.
func cssToXPath(sel string) string {
	parts := strings.Split(strings.TrimSpace(sel), ".")
	tag := parts[0]
	if tag == "" {
		tag = "*"
	}

	var b strings.Builder
	b.WriteString(tag)
	for _, cls := range parts[1:] {
		if cls == "" {
			continue
		}
		fmt.Fprintf(&b, `[contains(concat(" ", normalize-space(@class), " "), " %s ")]`, cls)
	}
	return b.String()
}

// Surface walks a list of snapshot pages in order.
type Surface struct {
	pages  []*Page
	index  int
	url    string
	logger *slog.Logger
}

var _ engine.Surface = (*Surface)(nil)

// Open loads every file in paths, in order. pageURL names the catalog page
// the snapshots came from; when empty, the first page's canonical URL is
// used, then the first file's path.
func Open(paths []string, pageURL string, sel config.SelectorConfig, logger *slog.Logger) (*Surface, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no snapshot files")
	}

	s := &Surface{logger: logger.With("component", "snapshot")}
	for _, path := range paths {
		p, err := Load(path, sel)
		if err != nil {
			return nil, err
		}
		s.pages = append(s.pages, p)
		s.logger.Debug("snapshot loaded", "path", path, "found", p.Found, "cards", len(p.Cards), "marker", p.Marker)
	}

	s.url = pageURL
	if s.url == "" {
		s.url = s.pages[0].Canonical
	}
	if s.url == "" {
		abs, err := filepath.Abs(paths[0])
		if err != nil {
			abs = paths[0]
		}
		s.url = "file://" + filepath.ToSlash(abs)
	}
	return s, nil
}

func (s *Surface) URL() string { return s.url }

// Scan returns the cards of the current page.
func (s *Surface) Scan(ctx context.Context) ([]extract.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := s.pages[s.index]
	if !p.Found {
		return nil, types.ErrNoResults
	}
	return p.Cards, nil
}

// Advance moves to the next file. A next file whose marker matches the
// current one counts as a page that never changed.
func (s *Surface) Advance(ctx context.Context, timeout, settle time.Duration) (engine.Advance, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cur := s.pages[s.index]
	switch {
	case !cur.HasMarker:
		return engine.AdvanceNoMarker, nil
	case !cur.HasNext:
		return engine.AdvanceLastPage, nil
	case s.index+1 >= len(s.pages):
		s.logger.Warn("next page enabled but no more snapshots", "path", cur.Path)
		return engine.AdvanceLastPage, nil
	}

	next := s.pages[s.index+1]
	if next.Marker == "" || next.Marker == cur.Marker {
		return engine.AdvanceTimeout, nil
	}
	s.index++
	return engine.AdvanceSettled, nil
}
