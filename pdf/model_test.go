package pdf

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 KB"},
		{1536, "1.5 KB"},
		{999_949, "999.9 KB"},
		{1_000_000, "1.0 MB"},
		{2_500_000, "2.5 MB"},
		{1_000_000_000, "1.0 GB"},
		{12_340_000_000, "12.3 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d): expected %q, got %q", tt.bytes, tt.want, got)
		}
	}
}

func TestMetaLine(t *testing.T) {
	single := PdfFile{PagesCount: 1, SizeBytes: 2048}
	if got := single.MetaLine(); got != "1 page • 2.0 KB" {
		t.Errorf("Expected single page meta line, got %q", got)
	}

	many := PdfFile{PagesCount: 12, SizeBytes: 500}
	if got := many.MetaLine(); got != "12 pages • 500 B" {
		t.Errorf("Expected multi page meta line, got %q", got)
	}

	empty := PdfFile{PagesCount: 0, SizeBytes: 10}
	if got := empty.MetaLine(); got != "0 pages • 10 B" {
		t.Errorf("Expected zero page meta line, got %q", got)
	}

	locked := PdfFile{PagesCount: 0, SizeBytes: 3_000_000, IsLocked: true}
	if got := locked.MetaLine(); got != "3.0 MB" {
		t.Errorf("Expected locked meta line to be the size only, got %q", got)
	}
}

func TestDates(t *testing.T) {
	created := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.Local)
	file := PdfFile{CreatedEpochSeconds: created.Unix(), LastModifiedEpochSeconds: created.AddDate(0, 10, 0).Unix()}

	if got := file.CreatedDate(); got != "07/03/2024" {
		t.Errorf("Expected 07/03/2024, got %s", got)
	}
	if got := file.LastModifiedDate(); got != "07/01/2025" {
		t.Errorf("Expected 07/01/2025, got %s", got)
	}

	summary := file.Summary()
	if summary.CreatedDate != "07/03/2024" || summary.MetaLine != file.MetaLine() {
		t.Errorf("Summary does not match its file: %+v", summary)
	}
}

func TestURIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Report #1.pdf")
	uri := FileURI(path)

	back, err := PathFromURI(uri)
	if err != nil {
		t.Fatalf("Failed to resolve %s: %v", uri, err)
	}
	if back != path {
		t.Errorf("Expected %s, got %s", path, back)
	}

	for _, bad := range []string{"content://media/1", "https://example.com/a.pdf", "file://", "%zz"} {
		if _, err := PathFromURI(bad); !errors.Is(err, ErrUnsupportedURI) {
			t.Errorf("Expected ErrUnsupportedURI for %q, got %v", bad, err)
		}
	}
}
