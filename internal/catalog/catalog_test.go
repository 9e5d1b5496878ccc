package catalog

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.skills.google/catalog?format[0]=labs", "labs"},
		{"https://www.skills.google/catalog?format%5B%5D=courses&per_page=100", "courses"},
		{"https://www.skills.google/catalog?format%5B%5D=__any__", "all"},
		{"https://www.skills.google/catalog", "all"},
		{"://bad", "all"},
		{"https://www.skills.google/catalog?format%5B0%5D=x/../../escaped", "x-escaped"},
		{"https://www.skills.google/catalog?format%5B0%5D=a/b", "a-b"},
		{"https://www.skills.google/catalog?format%5B0%5D=..%2F..", "all"},
		{"https://www.skills.google/catalog?format%5B0%5D=%2F%2F&format%5B%5D=labs", "labs"},
	}
	for _, tt := range tests {
		if got := Filter(tt.url); got != tt.want {
			t.Errorf("Filter(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestOutputNameStaysInDir(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	name := OutputName("https://www.skills.google/catalog?format%5B0%5D=x/../../escaped", ts)
	if name != "qwiklabs-catalog-x-escaped-2026-01-01T00-00-00-000Z" {
		t.Errorf("unexpected name %q", name)
	}

	dir := filepath.Join(t.TempDir(), "out")
	if got := filepath.Dir(filepath.Join(dir, name+".csv")); got != dir {
		t.Errorf("output resolves outside %s: %s", dir, got)
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 19, 12, 34, 56, 789_000_000, time.UTC)
	if got := Timestamp(ts); got != "2026-10-19T12-34-56-789Z" {
		t.Errorf("unexpected timestamp %q", got)
	}
}

func TestOutputName(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := OutputName("https://www.skills.google/catalog?format[0]=labs", ts)
	if got != "qwiklabs-catalog-labs-2026-01-02T03-04-05-000Z" {
		t.Errorf("unexpected name %q", got)
	}
	if strings.ContainsAny(got, ":.") {
		t.Errorf("name must not contain ':' or '.': %q", got)
	}
}

func TestFilterURL(t *testing.T) {
	raw, err := FilterURL("https://www.skills.google", "labs", 100)
	if err != nil {
		t.Fatal(err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/catalog" {
		t.Errorf("unexpected path %q", u.Path)
	}
	q := u.Query()
	if q.Get("format[]") != "labs" {
		t.Errorf("expected format[]=labs, got %q", q.Get("format[]"))
	}
	if q.Get("per_page") != "100" {
		t.Errorf("expected per_page=100, got %q", q.Get("per_page"))
	}
	if q.Get("level[]") != "__any__" {
		t.Errorf("expected level[]=__any__, got %q", q.Get("level[]"))
	}
	if Filter(raw) != "labs" {
		t.Errorf("filter URL should round-trip through Filter, got %q", Filter(raw))
	}
}

func TestFilterURLWithoutPerPage(t *testing.T) {
	raw, err := FilterURL("https://www.skills.google", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(raw, "per_page") {
		t.Errorf("per_page should be absent: %s", raw)
	}
	if Filter(raw) != "all" {
		t.Errorf("expected all, got %q", Filter(raw))
	}
}

func TestWithPerPageReplaces(t *testing.T) {
	raw, err := WithPerPage("https://www.skills.google/catalog?per_page=20&format%5B%5D=labs", 100)
	if err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(raw)
	if got := u.Query()["per_page"]; len(got) != 1 || got[0] != "100" {
		t.Errorf("expected single per_page=100, got %v", got)
	}
}
