// Package pdfops rewrites PDF files: merge, split, image import, optimize,
// encryption and page reordering. The heavy lifting is done by pdfcpu.
package pdfops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

var (
	// ErrNotEnoughInputs is returned when a merge has fewer than two documents
	ErrNotEnoughInputs = errors.New("pdfops: merge needs at least two documents")
	// ErrNoImages is returned when converting an empty image list
	ErrNoImages = errors.New("pdfops: no images to convert")
	// ErrInvalidOrder is returned when a page order is not a permutation of all pages
	ErrInvalidOrder = errors.New("pdfops: page order must list every page exactly once")
	// ErrWrongPassword is returned when a password does not unlock the document
	ErrWrongPassword = errors.New("pdfops: wrong password")
	// ErrEmptyPassword is returned when protecting with an empty password
	ErrEmptyPassword = errors.New("pdfops: password must not be empty")
	// ErrOutputExists is returned rather than overwriting an existing file
	ErrOutputExists = errors.New("pdfops: output file already exists")
)

func init() {
	// keep pdfcpu from writing its config into the user's home
	api.DisableConfigDir()
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func checkOutput(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	}
	return os.MkdirAll(filepath.Dir(path), os.ModePerm)
}

func isPasswordError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "password")
}

// PageCount returns the number of pages in an unencrypted document
func PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("unable to count pages in %s: %w", filepath.Base(path), err)
	}
	return count, nil
}

// Merge concatenates inputs in order into outPath
func Merge(ctx context.Context, inputs []string, outPath string) error {
	if len(inputs) < 2 {
		return ErrNotEnoughInputs
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkOutput(outPath); err != nil {
		return err
	}
	Logger.Info("Merging PDFs", "count", len(inputs), "output", outPath)
	if err := api.MergeCreateFile(inputs, outPath, false, newConfiguration()); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("unable to merge: %w", err)
	}
	return nil
}

// Split writes one file per range into outDir, named <base>_<range>.pdf, and
// returns the paths in plan order.
func Split(ctx context.Context, inPath string, plan []PageRange, outDir string) ([]string, error) {
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidRange)
	}
	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("unable to create split folder: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	conf := newConfiguration()
	outputs := make([]string, 0, len(plan))
	for i, r := range plan {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		outPath := filepath.Join(outDir, fmt.Sprintf("%s_%02d_p%s.pdf", base, i+1, r))
		if err := checkOutput(outPath); err != nil {
			return outputs, err
		}
		if err := api.TrimFile(inPath, outPath, []string{r.String()}, conf); err != nil {
			return outputs, fmt.Errorf("unable to write pages %s: %w", r, err)
		}
		outputs = append(outputs, outPath)
	}
	Logger.Info("Split PDF", "input", inPath, "files", len(outputs))
	return outputs, nil
}

// ImagesToPDF creates outPath with one page per image, in order
func ImagesToPDF(ctx context.Context, images []string, outPath string) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// pdfcpu appends to an existing file, which is never what we want
	if err := checkOutput(outPath); err != nil {
		return err
	}
	if err := api.ImportImagesFile(images, outPath, pdfcpu.DefaultImportConfig(), newConfiguration()); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("unable to convert images: %w", err)
	}
	Logger.Info("Converted images to PDF", "count", len(images), "output", outPath)
	return nil
}

// Compress optimizes inPath into outPath and reports both sizes
func Compress(ctx context.Context, inPath, outPath string) (before, after int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	info, err := os.Stat(inPath)
	if err != nil {
		return 0, 0, err
	}
	if err := api.OptimizeFile(inPath, outPath, newConfiguration()); err != nil {
		return 0, 0, fmt.Errorf("unable to optimize: %w", err)
	}
	outInfo, err := os.Stat(outPath)
	if err != nil {
		return 0, 0, err
	}
	return info.Size(), outInfo.Size(), nil
}

// SetPassword encrypts with AES-256. An empty owner password reuses the user password.
func SetPassword(ctx context.Context, inPath, outPath, userPassword, ownerPassword string) error {
	if userPassword == "" {
		return ErrEmptyPassword
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if ownerPassword == "" {
		ownerPassword = userPassword
	}
	conf := model.NewAESConfiguration(userPassword, ownerPassword, 256)
	if err := api.EncryptFile(inPath, outPath, conf); err != nil {
		if isPasswordError(err) {
			return fmt.Errorf("%w: document is already protected", ErrWrongPassword)
		}
		return fmt.Errorf("unable to encrypt: %w", err)
	}
	return nil
}

// RemovePassword decrypts a protected document
func RemovePassword(ctx context.Context, inPath, outPath, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conf := newConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.DecryptFile(inPath, outPath, conf); err != nil {
		if isPasswordError(err) {
			return ErrWrongPassword
		}
		return fmt.Errorf("unable to decrypt: %w", err)
	}
	return nil
}

// ReorderPages rewrites the document with its pages in order, a 1-based
// permutation of every page.
func ReorderPages(ctx context.Context, inPath, outPath string, order []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	count, err := PageCount(inPath)
	if err != nil {
		return err
	}
	if err := ValidateOrder(order, count); err != nil {
		return err
	}

	pages := make([]string, len(order))
	for i, page := range order {
		pages[i] = strconv.Itoa(page)
	}
	if err := api.CollectFile(inPath, outPath, pages, newConfiguration()); err != nil {
		return fmt.Errorf("unable to reorder pages: %w", err)
	}
	return nil
}

// ValidateOrder checks that order lists each of 1..pageCount exactly once
func ValidateOrder(order []int, pageCount int) error {
	if len(order) != pageCount {
		return fmt.Errorf("%w: got %d of %d pages", ErrInvalidOrder, len(order), pageCount)
	}
	seen := make([]bool, pageCount+1)
	for _, page := range order {
		if page < 1 || page > pageCount || seen[page] {
			return fmt.Errorf("%w: page %d", ErrInvalidOrder, page)
		}
		seen[page] = true
	}
	return nil
}
