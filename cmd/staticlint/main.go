// The staticlint binary bundles the project's static analysis into one
// multichecker: a fixed set of toolchain passes, the ineffassign and
// nilerr analyzers, the project's own noosexit check, and whichever
// staticcheck analyzers a config.json next to the binary enables.
package main

import (
	// Standard analyzers from the Go toolchain.
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"

	// Third-party analyzers.
	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"

	// Project analyzer.
	"github.com/esb/quicklist/cmd/staticlint/noosexit"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"honnef.co/go/tools/staticcheck"

	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the name of the JSON file, looked up next to the binary,
// that lists the enabled staticcheck analyzers.
const Config = `config.json`

// ConfigData holds the staticcheck analyzer names to enable, e.g.
// "SA1000" or "SA4010".
type ConfigData struct {
	Staticcheck []string
}

func main() {
	appfile, err := os.Executable()
	if err != nil {
		panic(err)
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), Config))
	if err != nil {
		panic(err)
	}
	var cfg ConfigData
	if err = json.Unmarshal(data, &cfg); err != nil {
		panic(err)
	}

	checks := []*analysis.Analyzer{
		copylock.Analyzer,    // locks copied by value
		loopclosure.Analyzer, // loop variables captured by closures
		lostcancel.Analyzer,  // contexts that are never canceled
		printf.Analyzer,      // format string mismatches
		structtag.Analyzer,   // malformed struct field tags
		unmarshal.Analyzer,   // non-pointer unmarshal targets
		unreachable.Analyzer, // unreachable code

		ineffassign.Analyzer, // assignments never read
		nilerr.Analyzer,      // nil returned right after a non-nil error

		noosexit.Analyzer, // os.Exit in main.main
	}

	enabled := make(map[string]bool)
	for _, name := range cfg.Staticcheck {
		enabled[name] = true
	}
	for _, v := range staticcheck.Analyzers {
		if enabled[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}

	multichecker.Main(checks...)
}
