package keys

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const (
	datasetPrefix = "datasets/"
	reportPrefix  = "reports/"
)

// sanitizeKey replaces spaces with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

// Dataset returns the object key under which an enriched dataset written to
// localPath is published.
func Dataset(localPath string) string {
	return datasetPrefix + sanitizeKey(filepath.Base(localPath))
}

// Report returns the object key of the JSON run report for runID.
func Report(runID string) string {
	return fmt.Sprintf("%s%s.json", reportPrefix, sanitizeKey(runID))
}

// IsDataset reports whether an object key names a published CSV dataset.
func IsDataset(key string) bool {
	return strings.HasPrefix(key, datasetPrefix) && strings.EqualFold(path.Ext(key), ".csv")
}
