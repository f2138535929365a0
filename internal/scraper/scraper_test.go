package scraper

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafoodpulse/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) config.ScraperConfig {
	return config.ScraperConfig{
		BaseURL:          baseURL,
		PageTimeout:      5 * time.Second,
		DownloadTimeout:  5 * time.Second,
		MaxRetries:       2,
		RequestsPerSec:   1000,
		Concurrency:      2,
		ExploreDataPages: true,
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(testConfig(baseURL), quietLogger()).SetRetryWait(time.Millisecond, 5*time.Millisecond)
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		text string
		want LinkType
	}{
		{"Monthly export statistics", LinkMonthly},
		{"Week 36", LinkWeekly},
		{"Yearly overview", LinkAnnual},
		{"Export by market", LinkExport},
		{"Import figures", LinkImport},
		{"Download", LinkGeneral},
		{"", LinkGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLink(tt.text))
		})
	}
}

func TestIsDataLink(t *testing.T) {
	assert.True(t, IsDataLink("Salmon prices", "/x"))
	assert.True(t, IsDataLink("Click here", "/statistics/2024"))
	assert.True(t, IsDataLink("Click here", "/files/report.PDF"))
	assert.False(t, IsDataLink("About us", "/about"))
}

func TestFindSpreadsheetLinks(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<a href="/files/uke36.xlsx">Weekly statistics</a>
		<a href="files/Monthly%20report.xls#top">Monthly report</a>
		<a href="/files/uke36.xlsx">duplicate</a>
		<a href="/files/notes.pdf">Notes</a>
		<a href="#section">Anchor</a>
		<a href="javascript:void(0)">Script</a>
	</body></html>`)

	links := FindSpreadsheetLinks(doc, "https://example.com/archive/")
	require.Len(t, links, 2)

	assert.Equal(t, "https://example.com/files/uke36.xlsx", links[0].URL)
	assert.Equal(t, "uke36.xlsx", links[0].Filename)
	assert.Equal(t, LinkWeekly, links[0].Type)
	assert.Equal(t, "https://example.com/archive/", links[0].SourcePage)

	assert.Equal(t, "https://example.com/archive/files/Monthly%20report.xls", links[1].URL)
	assert.Equal(t, "Monthly report.xls", links[1].Filename)
	assert.Equal(t, LinkMonthly, links[1].Type)
}

func TestFindDataLinks(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<a href="/export-data">Export data</a>
		<a href="/about">About</a>
		<a href="/export-data">Export data again</a>
		<a href="/weekly"></a>
	</body></html>`)

	links := FindDataLinks(doc, "https://example.com/")
	require.Len(t, links, 1)
	assert.Equal(t, DataLink{URL: "https://example.com/export-data", Text: "Export data", Type: LinkExport}, links[0])
}

func TestCleanFilename(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tests := []struct {
		name     string
		input    string
		linkType LinkType
		want     string
	}{
		{"plain", "uke36.xlsx", LinkGeneral, "uke36.xlsx"},
		{"typed", "uke36.xlsx", LinkWeekly, "weekly_uke36.xlsx"},
		{"unsafe chars", `a<b>c:d"e|f?g*.xls`, "", "a_b_c_d_e_f_g_.xls"},
		{"whitespace", "Monthly  report 2024.csv", LinkMonthly, "monthly_Monthly_report_2024.csv"},
		{"missing extension", "report", LinkGeneral, "report.xlsx"},
		{"empty", "", LinkAnnual, "annual_seafood_data_1700000000.xlsx"},
		{"only dots", "..", LinkGeneral, "seafood_data_1700000000.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFilename(tt.input, tt.linkType, now))
		})
	}
}

func TestFetchPageRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := newTestClient(srv.URL).FetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchPageClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchPageCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv.URL).FetchPage(ctx, srv.URL)
	assert.Error(t, err)
}

// archiveSite serves an archive page linking to a weekly file directly and
// to an export data page that embeds an iframe with another file.
func archiveSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/archive/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/files/uke36.xlsx">Week 36</a>
			<a href="/data/export">Export statistics</a>
			<a href="/broken">Market data</a>
			<a href="/contact">Contact</a>
		</body></html>`))
	})
	mux.HandleFunc("/data/export", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="/files/export.csv">CSV</a>
			<a href="/files/uke36.xlsx">again</a>
			<iframe src="/frame"></iframe>
		</body></html>`))
	})
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/files/framed.xls">framed</a></body></html>`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("content of " + r.URL.Path))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscover(t *testing.T) {
	srv := archiveSite(t)
	cfg := testConfig(srv.URL + "/archive/")
	s := New(cfg, newTestClient(cfg.BaseURL), quietLogger())

	files, err := s.Discover(context.Background())
	require.NoError(t, err)

	var urls []string
	for _, f := range files {
		urls = append(urls, strings.TrimPrefix(f.URL, srv.URL))
	}
	assert.Equal(t, []string{"/files/uke36.xlsx", "/files/export.csv", "/files/framed.xls"}, urls)
	assert.Equal(t, LinkWeekly, files[0].Type)
	assert.Equal(t, LinkExport, files[1].Type)
	assert.Equal(t, LinkExport, files[2].Type)
	assert.Equal(t, srv.URL+"/frame", files[2].SourcePage)
}

func TestDiscoverWithoutExploration(t *testing.T) {
	srv := archiveSite(t)
	cfg := testConfig(srv.URL + "/archive/")
	cfg.ExploreDataPages = false
	s := New(cfg, newTestClient(cfg.BaseURL), quietLogger())

	files, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "uke36.xlsx", files[0].Filename)
}

type fakeRenderer struct {
	html string
	err  error
}

func (f fakeRenderer) Render(context.Context, string) (string, error) { return f.html, f.err }

func TestDiscoverUsesRenderer(t *testing.T) {
	cfg := testConfig("https://example.com/archive/")
	cfg.ExploreDataPages = false
	s := New(cfg, nil, quietLogger()).WithRenderer(fakeRenderer{
		html: `<a href="/dl/uke01.xlsx">Week 1</a>`,
	})

	files, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "https://example.com/dl/uke01.xlsx", files[0].URL)
}

func TestDiscoverRendererError(t *testing.T) {
	s := New(testConfig("https://example.com/"), nil, quietLogger()).
		WithRenderer(fakeRenderer{err: assert.AnError})
	_, err := s.Discover(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDownloader(t *testing.T) {
	srv := archiveSite(t)
	dir := t.TempDir()
	client := newTestClient(srv.URL)
	d := NewDownloader(client, dir, 2, quietLogger(), nil)

	links := []FileLink{
		{URL: srv.URL + "/files/uke36.xlsx", Filename: "uke36.xlsx", Type: LinkWeekly},
		{URL: srv.URL + "/files/export.csv", Filename: "export.csv", Type: LinkGeneral},
		{URL: srv.URL + "/broken", Filename: "missing.xlsx", Type: LinkGeneral},
		{URL: srv.URL + "/files/other.xlsx", Filename: "uke36.xlsx", Type: LinkWeekly},
	}

	meta, err := d.Download(context.Background(), links)
	require.NoError(t, err)

	require.Len(t, meta.DownloadedFiles, 2)
	assert.Equal(t, "export.csv", meta.DownloadedFiles[0].Filename)
	assert.Equal(t, "weekly_uke36.xlsx", meta.DownloadedFiles[1].Filename)
	assert.Equal(t, 2, meta.TotalFiles)
	assert.Equal(t, map[string]int{"general": 1, "weekly": 1}, meta.FilesByType)
	require.Len(t, meta.FailedDownloads, 1)
	assert.Equal(t, "missing.xlsx", meta.FailedDownloads[0].Filename)

	data, err := os.ReadFile(filepath.Join(dir, "weekly_uke36.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "content of /files/uke36.xlsx", string(data))
	assert.Equal(t, int64(len(data)), meta.DownloadedFiles[1].Size)

	sum, err := FileChecksum(filepath.Join(dir, "weekly_uke36.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, sum, meta.DownloadedFiles[1].Checksum)
	assert.Len(t, sum, 64)

	// Second run finds identical content on disk.
	again, err := d.Download(context.Background(), links[:2])
	require.NoError(t, err)
	assert.Empty(t, again.DownloadedFiles)
	assert.Equal(t, []string{"export.csv", "weekly_uke36.xlsx"}, again.Unchanged)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no partial files left behind")
}

func TestDownloaderCancelled(t *testing.T) {
	srv := archiveSite(t)
	d := NewDownloader(newTestClient(srv.URL), t.TempDir(), 1, quietLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Download(ctx, []FileLink{{URL: srv.URL + "/files/a.xlsx", Filename: "a.xlsx"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetadataSave(t *testing.T) {
	meta := NewDownloadMetadata(time.Date(2024, 9, 6, 0, 0, 0, 0, time.UTC))
	meta.AddFile(DownloadedFile{Filename: "a.xlsx", Size: 10, Type: LinkWeekly})
	meta.AddFile(DownloadedFile{Filename: "b.xlsx", Size: 5, Type: LinkWeekly})
	meta.AddFailure(FailedDownload{Filename: "c.xlsx", Error: "boom"})

	path := filepath.Join(t.TempDir(), "download_metadata.json")
	require.NoError(t, meta.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_size_bytes": 15`)
	assert.Contains(t, string(data), `"weekly": 2`)
	assert.Contains(t, string(data), `"error": "boom"`)
}
