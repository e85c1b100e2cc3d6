package workspace

import (
	"path/filepath"
	"strings"
	"time"
)

func timestampStem(prefix string, now time.Time) string {
	return prefix + "_" + now.Format("20060102_150405")
}

func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
