// repolint runs the repository's nogo analyzers as a standalone vet tool:
//
//	go run ./repo-tools/cmd/repolint ./...
package main

import (
	"rtweekend/repo-tools/nogo/formatted"
	"rtweekend/repo-tools/nogo/globalrand"

	"golang.org/x/tools/go/analysis/multichecker"
)

func main() {
	multichecker.Main(
		formatted.Analyzer,
		globalrand.Analyzer,
	)
}
