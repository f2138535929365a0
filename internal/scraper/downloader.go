package scraper

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"seafoodpulse/internal/infrastructure"
)

// Downloader fetches discovered files into a directory with a bounded
// worker pool. Files whose content is already on disk are left untouched.
type Downloader struct {
	client      *Client
	dir         string
	concurrency int
	logger      *slog.Logger
	metrics     *infrastructure.BusinessMetrics
	now         func() time.Time
}

// NewDownloader creates a downloader writing into dir. metrics may be nil.
func NewDownloader(client *Client, dir string, concurrency int, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Downloader{
		client:      client,
		dir:         dir,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "downloader")),
		metrics:     metrics,
		now:         time.Now,
	}
}

// Download fetches every link. Individual failures are recorded in the
// returned metadata rather than aborting the batch; only cancellation of
// ctx is returned as an error.
func (d *Downloader) Download(ctx context.Context, links []FileLink) (*DownloadMetadata, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	now := d.now()
	meta := NewDownloadMetadata(now)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	claimed := make(map[string]bool)
	for _, link := range links {
		name := CleanFilename(link.Filename, link.Type, now)
		if claimed[name] {
			d.logger.WarnContext(ctx, "duplicate target name, skipping link",
				slog.String("filename", name),
				slog.String("url", link.URL))
			continue
		}
		claimed[name] = true

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			file, skipped, err := d.downloadOne(gctx, link, name)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				meta.AddFailure(FailedDownload{Filename: name, URL: link.URL, Error: err.Error(), Type: link.Type})
			case skipped:
				meta.Unchanged = append(meta.Unchanged, name)
			default:
				meta.AddFile(file)
			}
			return nil
		})
	}
	_ = g.Wait()

	meta.sort()
	d.logger.InfoContext(ctx, "download batch complete",
		slog.Int("downloaded", len(meta.DownloadedFiles)),
		slog.Int("unchanged", len(meta.Unchanged)),
		slog.Int("failed", len(meta.FailedDownloads)),
		slog.Int64("bytes", meta.TotalSizeBytes))

	if err := ctx.Err(); err != nil {
		return meta, err
	}
	return meta, nil
}

func (d *Downloader) downloadOne(ctx context.Context, link FileLink, name string) (DownloadedFile, bool, error) {
	target := filepath.Join(d.dir, name)

	tmp, err := os.CreateTemp(d.dir, "."+name+".*.part")
	if err != nil {
		return DownloadedFile{}, false, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h, _ := blake2b.New256(nil)
	size, err := d.client.Download(ctx, link.URL, io.MultiWriter(tmp, h))
	closeErr := tmp.Close()
	infrastructure.RecordDownload(ctx, d.metrics, string(link.Type), size, err)
	if err != nil {
		d.logger.WarnContext(ctx, "download failed", slog.String("url", link.URL), slog.String("error", err.Error()))
		return DownloadedFile{}, false, err
	}
	if closeErr != nil {
		return DownloadedFile{}, false, closeErr
	}

	checksum := hex.EncodeToString(h.Sum(nil))
	if existing, err := FileChecksum(target); err == nil && existing == checksum {
		d.logger.DebugContext(ctx, "file unchanged", slog.String("filename", name))
		return DownloadedFile{}, true, nil
	}

	if err := os.Rename(tmpName, target); err != nil {
		return DownloadedFile{}, false, fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	d.logger.InfoContext(ctx, "downloaded file",
		slog.String("filename", name),
		slog.Int64("bytes", size))

	return DownloadedFile{
		Filename:   name,
		URL:        link.URL,
		Size:       size,
		Path:       target,
		Type:       link.Type,
		SourcePage: link.SourcePage,
		Checksum:   checksum,
	}, false, nil
}

// FileChecksum returns the hex BLAKE2b-256 digest of the file at path
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, _ := blake2b.New256(nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (m *DownloadMetadata) sort() {
	sort.Slice(m.DownloadedFiles, func(i, j int) bool { return m.DownloadedFiles[i].Filename < m.DownloadedFiles[j].Filename })
	sort.Slice(m.FailedDownloads, func(i, j int) bool { return m.FailedDownloads[i].Filename < m.FailedDownloads[j].Filename })
	sort.Strings(m.Unchanged)
}
