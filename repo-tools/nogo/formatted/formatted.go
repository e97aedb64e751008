// Package formatted is a nogo analyzer that checks that all hand-written Go
// source files are formatted by gofmt.
package formatted

import (
	"bytes"
	"go/ast"
	"go/format"
	"os"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "formatted",
	Doc:  "reports unformatted files",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		if ast.IsGenerated(file) {
			continue
		}

		tf := pass.Fset.File(file.Pos())
		in, err := os.ReadFile(tf.Name())
		if err != nil {
			return nil, err
		}

		out, err := format.Source(in)
		if err != nil {
			return nil, err
		}

		if bytes.Equal(in, out) {
			continue
		}

		line := firstDifferentLine(in, out)
		if line > tf.LineCount() {
			line = tf.LineCount()
		}
		pass.Reportf(tf.LineStart(line), "File is incorrectly formatted starting at line %d; please run `gofmt`", line)
	}
	return nil, nil
}

// firstDifferentLine returns the 1-based number of the first line that
// differs between a and b.
func firstDifferentLine(a, b []byte) int {
	al := bytes.Split(a, []byte("\n"))
	bl := bytes.Split(b, []byte("\n"))
	for i := 0; i < len(al) && i < len(bl); i++ {
		if !bytes.Equal(al[i], bl[i]) {
			return i + 1
		}
	}
	if len(al) < len(bl) {
		return len(al)
	}
	return len(bl)
}
