package scraper

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkType groups discovered links the way output files are prefixed
type LinkType string

const (
	LinkMonthly LinkType = "monthly"
	LinkWeekly  LinkType = "weekly"
	LinkAnnual  LinkType = "annual"
	LinkExport  LinkType = "export"
	LinkImport  LinkType = "import"
	LinkGeneral LinkType = "general"
)

// DataLink is a page that may lead to downloadable statistics
type DataLink struct {
	URL  string   `json:"url"`
	Text string   `json:"text"`
	Type LinkType `json:"type"`
}

// FileLink is a downloadable statistics file
type FileLink struct {
	URL        string   `json:"url"`
	Filename   string   `json:"filename"`
	Text       string   `json:"text"`
	Type       LinkType `json:"type"`
	SourcePage string   `json:"source_page"`
}

var dataKeywords = []string{
	"export", "import", "statistics", "data", "trade", "market",
	"monthly", "weekly", "annual", "yearly", "quarterly",
	"volume", "value", "tonnage", "seafood", "fish", "salmon",
	"cod", "herring", "mackerel", "species", "product",
}

var (
	spreadsheetExts = []string{".xlsx", ".xls"}
	fileExts        = []string{".xlsx", ".xls", ".csv"}
	dataFileExts    = []string{".xlsx", ".xls", ".csv", ".pdf"}
)

// ClassifyLink buckets a link by its text. The first matching group wins.
func ClassifyLink(text string) LinkType {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, "monthly", "month"):
		return LinkMonthly
	case containsAny(t, "weekly", "week"):
		return LinkWeekly
	case containsAny(t, "annual", "yearly", "year"):
		return LinkAnnual
	case strings.Contains(t, "export"):
		return LinkExport
	case strings.Contains(t, "import"):
		return LinkImport
	}
	return LinkGeneral
}

// IsDataLink reports whether an anchor probably leads to statistics
func IsDataLink(text, href string) bool {
	t, h := strings.ToLower(text), strings.ToLower(href)
	for _, kw := range dataKeywords {
		if strings.Contains(t, kw) || strings.Contains(h, kw) {
			return true
		}
	}
	return hasExt(h, dataFileExts)
}

// FindSpreadsheetLinks returns every anchor on doc pointing at an .xlsx or
// .xls file, resolved against base and de-duplicated in page order.
func FindSpreadsheetLinks(doc *goquery.Document, base string) []FileLink {
	return fileLinks(doc, base, spreadsheetExts, "")
}

// FindDataLinks returns anchors with text whose text or target suggests
// statistics content.
func FindDataLinks(doc *goquery.Document, base string) []DataLink {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var links []DataLink
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		text := strings.TrimSpace(s.Text())
		if href == "" || text == "" || !IsDataLink(text, href) {
			return
		}
		abs, ok := resolve(baseURL, href)
		if !ok || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, DataLink{URL: abs, Text: text, Type: ClassifyLink(text)})
	})
	return links
}

// fileLinks collects anchors ending in one of exts. A fixed link type
// overrides classification by anchor text.
func fileLinks(doc *goquery.Document, base string, exts []string, fixed LinkType) []FileLink {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var links []FileLink
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		abs, ok := resolve(baseURL, href)
		if !ok || seen[abs] {
			return
		}
		u, _ := url.Parse(abs)
		if !hasExt(strings.ToLower(u.Path), exts) {
			return
		}
		seen[abs] = true

		text := strings.TrimSpace(s.Text())
		linkType := fixed
		if linkType == "" {
			linkType = ClassifyLink(text)
		}
		links = append(links, FileLink{
			URL:        abs,
			Filename:   fileNameOf(u),
			Text:       text,
			Type:       linkType,
			SourcePage: base,
		})
	})
	return links
}

func iframeSources(doc *goquery.Document, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		if abs, ok := resolve(baseURL, strings.TrimSpace(s.AttrOr("src", ""))); ok {
			out = append(out, abs)
		}
	})
	return out
}

func resolve(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	return abs.String(), true
}

func fileNameOf(u *url.URL) string {
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "/" || name == "." {
		return ""
	}
	return name
}

func hasExt(p string, exts []string) bool {
	for _, e := range exts {
		if strings.HasSuffix(p, e) {
			return true
		}
	}
	return false
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
