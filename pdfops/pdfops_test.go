package pdfops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drummonds/pdfmanager/internal/pdftest"
)

func TestMerge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a := pdftest.WritePDF(t, dir, "a.pdf", 2)
	b := pdftest.WritePDF(t, dir, "b.pdf", 3)
	out := filepath.Join(dir, "out", "merged.pdf")

	if err := Merge(ctx, []string{a, b}, out); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if got := pdftest.PageCount(t, out); got != 5 {
		t.Errorf("Expected 5 pages, got %d", got)
	}

	if err := Merge(ctx, []string{a, b}, out); !errors.Is(err, ErrOutputExists) {
		t.Errorf("Expected ErrOutputExists, got %v", err)
	}
	if err := Merge(ctx, []string{a}, filepath.Join(dir, "single.pdf")); !errors.Is(err, ErrNotEnoughInputs) {
		t.Errorf("Expected ErrNotEnoughInputs, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := Merge(cancelled, []string{a, b}, filepath.Join(dir, "cancelled.pdf")); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSplit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := pdftest.WritePDF(t, dir, "report.pdf", 6)

	plan, err := ParseRanges("1-3, 5", 6)
	if err != nil {
		t.Fatalf("ParseRanges failed: %v", err)
	}
	outputs, err := Split(ctx, in, plan, filepath.Join(dir, "split"))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("Expected 2 outputs, got %d", len(outputs))
	}
	if got := pdftest.PageCount(t, outputs[0]); got != 3 {
		t.Errorf("Expected 3 pages in first output, got %d", got)
	}
	if got := pdftest.PageCount(t, outputs[1]); got != 1 {
		t.Errorf("Expected 1 page in second output, got %d", got)
	}
	if !strings.HasPrefix(filepath.Base(outputs[0]), "report_01_") {
		t.Errorf("Unexpected output name %s", filepath.Base(outputs[0]))
	}

	everyFour, _ := EveryNPages(6, 4)
	outputs, err = Split(ctx, in, everyFour, filepath.Join(dir, "chunks"))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(outputs) != 2 || pdftest.PageCount(t, outputs[1]) != 2 {
		t.Errorf("Expected chunks of 4 and 2 pages, got %v", outputs)
	}

	if _, err := Split(ctx, in, nil, filepath.Join(dir, "empty")); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for empty plan, got %v", err)
	}
}

func TestImagesToPDF(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	images := []string{
		pdftest.WritePNG(t, dir, "one.png", 300, 400),
		pdftest.WritePNG(t, dir, "two.png", 400, 300),
		pdftest.WritePNG(t, dir, "three.jpg", 50, 50),
	}
	out := filepath.Join(dir, "images.pdf")

	if err := ImagesToPDF(ctx, images, out); err != nil {
		t.Fatalf("ImagesToPDF failed: %v", err)
	}
	if got := pdftest.PageCount(t, out); got != 3 {
		t.Errorf("Expected 3 pages, got %d", got)
	}
	if err := ImagesToPDF(ctx, nil, filepath.Join(dir, "none.pdf")); !errors.Is(err, ErrNoImages) {
		t.Errorf("Expected ErrNoImages, got %v", err)
	}
}

func TestCompress(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.WritePDF(t, dir, "big.pdf", 3)
	out := filepath.Join(dir, "small.pdf")

	before, after, err := Compress(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if before <= 0 || after <= 0 {
		t.Errorf("Expected positive sizes, got %d and %d", before, after)
	}
	if got := pdftest.PageCount(t, out); got != 3 {
		t.Errorf("Expected 3 pages after compress, got %d", got)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := pdftest.WritePDF(t, dir, "plain.pdf", 2)
	locked := filepath.Join(dir, "locked.pdf")
	unlocked := filepath.Join(dir, "unlocked.pdf")

	if err := SetPassword(ctx, in, locked, "", ""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("Expected ErrEmptyPassword, got %v", err)
	}
	if err := SetPassword(ctx, in, locked, "hunter2", ""); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if _, err := PageCount(locked); err == nil {
		t.Error("Expected protected document to need a password")
	}

	if err := RemovePassword(ctx, locked, filepath.Join(dir, "wrong.pdf"), "nope"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Expected ErrWrongPassword, got %v", err)
	}
	if err := RemovePassword(ctx, locked, unlocked, "hunter2"); err != nil {
		t.Fatalf("RemovePassword failed: %v", err)
	}
	if got := pdftest.PageCount(t, unlocked); got != 2 {
		t.Errorf("Expected 2 pages after unlock, got %d", got)
	}
}

func TestReorderPages(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := pdftest.WritePDF(t, dir, "pages.pdf", 3)
	out := filepath.Join(dir, "reordered.pdf")

	if err := ReorderPages(ctx, in, out, []int{3, 1}); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder, got %v", err)
	}
	if err := ReorderPages(ctx, in, out, []int{3, 1, 2}); err != nil {
		t.Fatalf("ReorderPages failed: %v", err)
	}
	if got := pdftest.PageCount(t, out); got != 3 {
		t.Errorf("Expected 3 pages, got %d", got)
	}
}

func TestExtractText(t *testing.T) {
	dir := t.TempDir()
	in := pdftest.WritePDF(t, dir, "scan.pdf", 1)

	// image-only pages carry no text
	text, err := ExtractText(in, 100)
	if err == nil && strings.TrimSpace(text) != "" {
		t.Errorf("Expected no text from an image-only PDF, got %q", text)
	}

	if _, err := ExtractText(filepath.Join(dir, "missing.pdf"), 100); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := os.Stat(in); err != nil {
		t.Errorf("ExtractText should not touch its input: %v", err)
	}
}
