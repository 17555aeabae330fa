// Package main provides the go-buildprep CLI tool for mobile build preparation.
//
// For the library API, see the prep subpackage:
//
//	import "github.com/mobilekit/go-buildprep/pkg/prep"
//
// # Installation
//
// Install the CLI:
//
//	go install github.com/mobilekit/go-buildprep@latest
package main
