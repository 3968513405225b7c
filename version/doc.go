// Package version reports the version of this module, used in the
// User-Agent product token.
//
// Version can be pinned at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/kiotahttp/version.Version=1.0.0"
package version
