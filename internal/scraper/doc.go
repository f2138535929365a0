// Package scraper discovers and downloads weekly statistics workbooks from
// the seafood statistics archive.
//
// Scraper.Discover loads the archive page (optionally through headless
// Chrome), collects direct spreadsheet links and, when enabled, explores
// linked data pages and their iframes for more files. Downloader fetches
// the result with a bounded pool; every request goes through the Client's
// shared rate limiter and retry policy. Files whose BLAKE2b digest matches
// the copy on disk are reported as unchanged.
package scraper
