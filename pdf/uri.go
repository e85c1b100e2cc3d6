package pdf

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

// ErrUnsupportedURI is returned for document references that are not file:// URIs
var ErrUnsupportedURI = errors.New("pdf: unsupported document reference")

// FileURI turns a filesystem path into a document reference
func FileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// PathFromURI resolves a document reference back to a filesystem path
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURI, err)
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
	return filepath.FromSlash(u.Path), nil
}
