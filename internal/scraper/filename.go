package scraper

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// CleanFilename makes a downloaded file name filesystem-safe and prefixes
// it with the link type. Names without a spreadsheet or CSV extension get
// ".xlsx"; an empty name falls back to seafood_data_<unix>.
func CleanFilename(name string, linkType LinkType, now time.Time) string {
	clean := unsafeChars.ReplaceAllString(name, "_")
	clean = whitespace.ReplaceAllString(clean, "_")
	clean = strings.Trim(clean, "._")

	if clean == "" {
		clean = fmt.Sprintf("seafood_data_%d", now.Unix())
	}
	if !hasExt(strings.ToLower(clean), fileExts) {
		clean += ".xlsx"
	}
	if linkType != "" && linkType != LinkGeneral {
		clean = string(linkType) + "_" + clean
	}
	return clean
}
