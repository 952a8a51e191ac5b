// Command harness drives internal/harness's contract fixtures and property
// tests outside of `go test`, for quick manual iteration while working on
// the engine (SPEC_FULL.md §9). It is the only package in this module
// allowed a main func and an os.Exit.
package main

import (
	"os"

	"github.com/hum2song/engine/internal/corelog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		corelog.Error("harness run failed", err, corelog.Fields{})
		os.Exit(1)
	}
}
