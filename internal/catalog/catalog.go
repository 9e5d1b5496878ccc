// Package catalog knows the shape of the catalog page URLs: the filter
// links for each format and the output name derived from them.
package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Formats supported by the catalog filter.
var Formats = []string{"labs", "courses"}

// FilterURL returns the catalog URL listing every item of format. A
// perPage above zero is added as the per_page parameter.
func FilterURL(origin, format string, perPage int) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin: %w", err)
	}
	u.Path = "/catalog"

	// The catalog expects every facet present, "__any__" meaning unfiltered.
	q := url.Values{}
	q.Set("skill-badge[]", "__any__")
	q.Set("level[]", "__any__")
	q.Set("language[]", "__any__")
	q.Set("keywords", "")
	q.Set("locale", "")
	if format != "" {
		q.Set("format[]", format)
	} else {
		q.Set("format[]", "__any__")
	}
	u.RawQuery = q.Encode()

	if perPage > 0 {
		return WithPerPage(u.String(), perPage)
	}
	return u.String(), nil
}

// WithPerPage sets the per_page query parameter on rawURL.
func WithPerPage(rawURL string, perPage int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(perPage))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var unsafeFilterChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filter returns the requested content filter of a catalog page URL:
// format[0], then format[], then "all". The value ends up in a filename,
// so runs of characters outside [A-Za-z0-9_-] collapse to a single '-'.
func Filter(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "all"
	}
	q := u.Query()
	for _, key := range []string{"format[0]", "format[]"} {
		v := q.Get(key)
		if v == "" || v == "__any__" {
			continue
		}
		if v = strings.Trim(unsafeFilterChars.ReplaceAllString(v, "-"), "-"); v != "" {
			return v
		}
	}
	return "all"
}

// Timestamp formats t as an ISO 8601 UTC timestamp with millisecond
// precision, with ':' and '.' replaced by '-' so it is safe in filenames.
func Timestamp(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// OutputName returns the output base name for a scrape of pageURL
// finished at t, without extension.
func OutputName(pageURL string, t time.Time) string {
	return fmt.Sprintf("qwiklabs-catalog-%s-%s", Filter(pageURL), Timestamp(t))
}
