// Package build carries values stamped in at link time, e.g.
//
//	go build -ldflags "-X github.com/drummonds/pdfmanager/internal/build.Version=1.2.0"
package build

// Version of the running binary
var Version = "dev"
