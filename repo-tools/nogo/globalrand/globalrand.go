// Package globalrand is a nogo analyzer that reports uses of the package-level
// functions of math/rand.  They draw from a hidden, shared source, which makes
// renders irreproducible and serializes workers on its lock.
package globalrand

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "globalrand",
	Doc:  "reports uses of the package-level math/rand source",
	Run:  run,
}

// Package-level functions that build an explicit source rather than use the
// shared one.
var allowed = map[string]map[string]bool{
	"math/rand": {
		"New":       true,
		"NewSource": true,
		"NewZipf":   true,
	},
	"math/rand/v2": {
		"New":        true,
		"NewPCG":     true,
		"NewChaCha8": true,
		"NewZipf":    true,
	},
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
			if !ok || fn.Pkg() == nil {
				return true
			}

			names, ok := allowed[fn.Pkg().Path()]
			if !ok {
				return true
			}

			// Methods on *rand.Rand are fine.
			if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
				return true
			}

			if names[fn.Name()] {
				return true
			}

			pass.Reportf(sel.Pos(), "%s.%s uses the package-level random source; pass a randsource.Source instead", fn.Pkg().Path(), fn.Name())
			return true
		})
	}
	return nil, nil
}
