package scraper

import (
	"time"

	"seafoodpulse/internal/exporter"
)

// DownloadedFile describes one file written to the downloads directory
type DownloadedFile struct {
	Filename   string   `json:"filename"`
	URL        string   `json:"url"`
	Size       int64    `json:"size"`
	Path       string   `json:"path"`
	Type       LinkType `json:"type"`
	SourcePage string   `json:"source_page"`
	Checksum   string   `json:"checksum"`
}

// FailedDownload records a link that could not be fetched
type FailedDownload struct {
	Filename string   `json:"filename"`
	URL      string   `json:"url"`
	Error    string   `json:"error"`
	Type     LinkType `json:"type"`
}

// DownloadMetadata is the summary written next to the downloaded files
type DownloadMetadata struct {
	DownloadDate    time.Time        `json:"download_date"`
	TotalFiles      int              `json:"total_files"`
	TotalSizeBytes  int64            `json:"total_size_bytes"`
	FilesByType     map[string]int   `json:"files_by_type"`
	DownloadedFiles []DownloadedFile `json:"downloaded_files"`
	FailedDownloads []FailedDownload `json:"failed_downloads"`
	Unchanged       []string         `json:"unchanged_files,omitempty"`
}

// NewDownloadMetadata returns empty metadata stamped with t
func NewDownloadMetadata(t time.Time) *DownloadMetadata {
	return &DownloadMetadata{
		DownloadDate:    t,
		FilesByType:     map[string]int{},
		DownloadedFiles: []DownloadedFile{},
		FailedDownloads: []FailedDownload{},
	}
}

// AddFile records a successful download
func (m *DownloadMetadata) AddFile(f DownloadedFile) {
	m.DownloadedFiles = append(m.DownloadedFiles, f)
	m.TotalFiles++
	m.TotalSizeBytes += f.Size
	m.FilesByType[string(f.Type)]++
}

// AddFailure records a failed download
func (m *DownloadMetadata) AddFailure(f FailedDownload) {
	m.FailedDownloads = append(m.FailedDownloads, f)
}

// Save writes the metadata as indented JSON
func (m *DownloadMetadata) Save(path string) error {
	return exporter.NewJSONWriter().Write(path, m)
}
