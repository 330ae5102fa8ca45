package language

import (
	"go/ast"
	"go/parser"
	"go/token"

	"codexsum/pkg/types"
)

// goDetector finds structural boundaries in Go source using the standard
// AST. Only top-level declarations are emitted; nested declarations stay
// inside their enclosing unit.
type goDetector struct{}

func (d *goDetector) Language() types.Language { return types.LangGo }

func (d *goDetector) DetectBoundaries(content []byte) []Boundary {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", content, parser.ParseComments)
	if file == nil {
		// No partial AST to work with; generic chunking takes over.
		return nil
	}
	// A partial AST from a syntax error is still usable: whatever
	// declarations parsed cleanly keep their positions.
	_ = err

	var bounds []Boundary
	for _, decl := range file.Decls {
		switch n := decl.(type) {
		case *ast.FuncDecl:
			b := Boundary{
				Kind:   types.ChunkFunction,
				Symbol: n.Name.Name,
			}
			if n.Recv != nil && len(n.Recv.List) > 0 {
				b.Parent = receiverName(n.Recv.List[0].Type)
			}
			// Include the doc comment in the unit so a summary sees it.
			start := n.Pos()
			if n.Doc != nil {
				start = n.Doc.Pos()
			}
			b.StartLine = fset.Position(start).Line
			b.EndLine = fset.Position(n.End()).Line
			bounds = append(bounds, b)
		case *ast.GenDecl:
			if n.Tok != token.TYPE {
				// const/var/import blocks read as module-level context.
				continue
			}
			b := Boundary{Kind: types.ChunkClass}
			if len(n.Specs) > 0 {
				if ts, ok := n.Specs[0].(*ast.TypeSpec); ok {
					b.Symbol = ts.Name.Name
				}
			}
			start := n.Pos()
			if n.Doc != nil {
				start = n.Doc.Pos()
			}
			b.StartLine = fset.Position(start).Line
			b.EndLine = fset.Position(n.End()).Line
			bounds = append(bounds, b)
		}
	}
	return normalize(bounds)
}

// receiverName extracts the receiver type name from a method declaration.
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr: // generic receiver
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	}
	return ""
}
