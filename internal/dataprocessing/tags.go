package dataprocessing

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"seafoodpulse/pkg/contracts/domain"
)

var weekPattern = regexp.MustCompile(`uke-(\d+)`)

// FileTags are the week and category encoded in a statistics file name
type FileTags struct {
	Week     int
	Category domain.Category
}

// ParseFileTags reads the week ("uke-36") and category slug
// ("laks-og-orret") from a file name or URL. Matching is case-insensitive
// and the week must lie in 1..53.
func ParseFileTags(name string) (FileTags, bool) {
	base := strings.ToLower(filepath.Base(name))

	m := weekPattern.FindStringSubmatch(base)
	if m == nil {
		return FileTags{}, false
	}
	week, err := strconv.Atoi(m[1])
	if err != nil || week < 1 || week > 53 {
		return FileTags{}, false
	}

	for _, c := range domain.AllCategories() {
		if strings.Contains(base, c.Slug()) {
			return FileTags{Week: week, Category: c}, true
		}
	}

	return FileTags{}, false
}
