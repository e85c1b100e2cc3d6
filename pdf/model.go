package pdf

import (
	"fmt"
	"time"

	"github.com/drummonds/pdfmanager/database"
)

// PdfFile is a document as shown in the UI
type PdfFile struct {
	ID                       string `json:"id"`
	URI                      string `json:"uri"`
	Name                     string `json:"name"`
	SizeBytes                int64  `json:"sizeBytes"`
	PagesCount               int    `json:"pagesCount"`
	StoragePath              string `json:"storagePath"`
	LastModifiedEpochSeconds int64  `json:"lastModifiedEpochSeconds"`
	CreatedEpochSeconds      int64  `json:"createdEpochSeconds"`
	IsLocked                 bool   `json:"isLocked"`
}

// Summary is a PdfFile with its display strings filled in
type Summary struct {
	PdfFile
	Size             string `json:"size"`
	MetaLine         string `json:"metaLine"`
	CreatedDate      string `json:"createdDate"`
	LastModifiedDate string `json:"lastModifiedDate"`
}

// FromDocument converts an index row into a PdfFile
func FromDocument(doc database.Document) PdfFile {
	return PdfFile{
		ID:                       doc.ULID.String(),
		URI:                      doc.URI,
		Name:                     doc.Name,
		SizeBytes:                doc.SizeBytes,
		PagesCount:               doc.PagesCount,
		StoragePath:              doc.Folder,
		LastModifiedEpochSeconds: doc.ModifiedEpoch,
		CreatedEpochSeconds:      doc.CreatedEpoch,
		IsLocked:                 doc.Locked,
	}
}

// Size is the file size in decimal units, e.g. "1.5 MB"
func (p PdfFile) Size() string {
	return FormatBytes(p.SizeBytes)
}

// MetaLine is the secondary list line: page count and size, or only size when locked
func (p PdfFile) MetaLine() string {
	if p.IsLocked {
		return p.Size()
	}
	pages := fmt.Sprintf("%d pages", p.PagesCount)
	if p.PagesCount == 1 {
		pages = "1 page"
	}
	return pages + " • " + p.Size()
}

// CreatedDate formats the created time as dd/MM/yyyy
func (p PdfFile) CreatedDate() string {
	return FormatDate(p.CreatedEpochSeconds)
}

// LastModifiedDate formats the modification time as dd/MM/yyyy
func (p PdfFile) LastModifiedDate() string {
	return FormatDate(p.LastModifiedEpochSeconds)
}

// Summary fills in the display strings
func (p PdfFile) Summary() Summary {
	return Summary{
		PdfFile:          p,
		Size:             p.Size(),
		MetaLine:         p.MetaLine(),
		CreatedDate:      p.CreatedDate(),
		LastModifiedDate: p.LastModifiedDate(),
	}
}

// FormatBytes renders a byte count with 1000-based units and one decimal
func FormatBytes(bytes int64) string {
	const (
		kb = 1000.0
		mb = kb * 1000
		gb = mb * 1000
	)
	switch {
	case bytes < kb:
		return fmt.Sprintf("%d B", bytes)
	case bytes < mb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	case bytes < gb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	}
}

// FormatDate renders epoch seconds as dd/MM/yyyy in local time
func FormatDate(epochSeconds int64) string {
	return time.Unix(epochSeconds, 0).Format("02/01/2006")
}
