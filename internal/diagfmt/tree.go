package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"strata/internal/source"
	"strata/internal/symbols"
)

// TreeOutput is the serializable form of one file's scope tree.
type TreeOutput struct {
	File  string    `json:"file" yaml:"file"`
	Root  ScopeNode `json:"root" yaml:"root"`
	Stats TreeStats `json:"stats" yaml:"stats"`
}

// TreeStats mirrors symbols.Stats.
type TreeStats struct {
	Scopes    int `json:"scopes" yaml:"scopes"`
	Functions int `json:"functions" yaml:"functions"`
	Variables int `json:"variables" yaml:"variables"`
}

// ScopeNode is a namespace (or the file root) with its declarations.
type ScopeNode struct {
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Kind      string         `json:"kind" yaml:"kind"`
	Path      string         `json:"path,omitempty" yaml:"path,omitempty"`
	Super     string         `json:"super,omitempty" yaml:"super,omitempty"`
	Pos       string         `json:"pos,omitempty" yaml:"pos,omitempty"`
	Variables []VariableNode `json:"variables,omitempty" yaml:"variables,omitempty"`
	Functions []FunctionNode `json:"functions,omitempty" yaml:"functions,omitempty"`
	Children  []ScopeNode    `json:"children,omitempty" yaml:"children,omitempty"`
}

// VariableNode is one recorded assignment target.
type VariableNode struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// FunctionNode is a function with its parameter list and body.
type FunctionNode struct {
	Name      string      `json:"name" yaml:"name"`
	Signature string      `json:"signature" yaml:"signature"`
	Pos       string      `json:"pos,omitempty" yaml:"pos,omitempty"`
	Params    []ParamNode `json:"params,omitempty" yaml:"params,omitempty"`
	Body      *ScopeNode  `json:"body,omitempty" yaml:"body,omitempty"`
}

// ParamNode is one parameter.
type ParamNode struct {
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// BuildTree converts table into its output form. positions adds line:col
// to declarations.
func BuildTree(table *symbols.Table, file *source.File, fs *source.FileSet, opts TreeOpts) TreeOutput {
	b := treeBuilder{table: table, fs: fs, positions: opts.Positions}
	st := table.Stats()
	out := TreeOutput{
		Root:  b.scope(table.Root),
		Stats: TreeStats{Scopes: st.Scopes, Functions: st.Functions, Variables: st.Variables},
	}
	if file != nil {
		out.File = formatPath(file, fs, opts.PathMode)
	}
	return out
}

type treeBuilder struct {
	table     *symbols.Table
	fs        *source.FileSet
	positions bool
}

func (b *treeBuilder) pos(sp source.Span) string {
	if !b.positions || b.fs == nil || b.fs.Get(sp.File) == nil {
		return ""
	}
	start, _ := b.fs.Resolve(sp)
	return fmt.Sprintf("%d:%d", start.Line, start.Col)
}

func (b *treeBuilder) scope(id symbols.ScopeID) ScopeNode {
	s := b.table.Scope(id)
	node := ScopeNode{
		Name:  s.Name,
		Kind:  s.Kind.String(),
		Super: s.Super,
	}
	if id != b.table.Root {
		node.Path = b.table.Path(id)
		node.Pos = b.pos(s.Span)
	}
	for _, name := range s.VarOrder {
		node.Variables = append(node.Variables, VariableNode{Name: name, Type: b.table.Types.String(s.Vars[name])})
	}

	bodies := make(map[symbols.ScopeID]bool)
	for _, fid := range s.Functions {
		fn := b.table.Function(fid)
		node.Functions = append(node.Functions, b.function(fn))
		if fn.Body.IsValid() {
			bodies[fn.Body] = true
		}
	}
	for _, child := range s.Children {
		if bodies[child] {
			continue
		}
		node.Children = append(node.Children, b.scope(child))
	}
	return node
}

func (b *treeBuilder) function(fn *symbols.Function) FunctionNode {
	node := FunctionNode{
		Name:      fn.Name,
		Signature: Signature(b.table, fn),
		Pos:       b.pos(fn.Span),
	}
	types := b.table.Types
	param := func(p symbols.Param, kind string) ParamNode {
		pn := ParamNode{Name: p.Name, Kind: kind, Type: types.String(p.Type)}
		if p.HasDefault() {
			pn.Default = types.String(*p.Default)
		}
		return pn
	}
	for _, p := range fn.Positional {
		node.Params = append(node.Params, param(p, "positional"))
	}
	if fn.Rest != "" {
		node.Params = append(node.Params, ParamNode{Name: fn.Rest, Kind: "rest"})
	}
	for _, p := range fn.KeywordParams() {
		node.Params = append(node.Params, param(p, "keyword"))
	}
	if fn.KeywordRest != "" {
		node.Params = append(node.Params, ParamNode{Name: fn.KeywordRest, Kind: "keyword_rest"})
	}
	if fn.Block != "" {
		node.Params = append(node.Params, ParamNode{Name: fn.Block, Kind: "block"})
	}
	if fn.Body.IsValid() {
		body := b.scope(fn.Body)
		if len(body.Variables)+len(body.Functions)+len(body.Children) > 0 {
			body.Path, body.Pos = "", ""
			node.Body = &body
		}
	}
	return node
}

// Signature renders `name(a, b = Integer, *rest, k:, v: String, **opts, &blk)`.
// Anonymous splats keep their bare marker.
func Signature(table *symbols.Table, fn *symbols.Function) string {
	var parts []string
	for _, p := range fn.Positional {
		if p.HasDefault() {
			parts = append(parts, p.Name+" = "+table.Types.String(*p.Default))
		} else {
			parts = append(parts, p.Name)
		}
	}
	if fn.Rest != "" {
		parts = append(parts, splat("*", fn.Rest))
	}
	for _, p := range fn.KeywordParams() {
		if p.HasDefault() {
			parts = append(parts, p.Name+": "+table.Types.String(*p.Default))
		} else {
			parts = append(parts, p.Name+":")
		}
	}
	if fn.KeywordRest != "" {
		parts = append(parts, splat("**", fn.KeywordRest))
	}
	if fn.Block != "" {
		parts = append(parts, splat("&", fn.Block))
	}
	return fn.Name + "(" + strings.Join(parts, ", ") + ")"
}

func splat(marker, name string) string {
	if name == marker {
		return marker
	}
	return marker + name
}

// WriteTree renders tree in the requested format.
func WriteTree(w io.Writer, tree TreeOutput, format TreeFormat, opts TreeOpts) error {
	switch format {
	case TreeJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case TreeYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeTreePretty(w, tree, opts)
	}
}

// WriteTrees renders several files: a JSON array, a multi-document YAML
// stream, or pretty trees separated by blank lines.
func WriteTrees(w io.Writer, trees []TreeOutput, format TreeFormat, opts TreeOpts) error {
	switch format {
	case TreeJSON:
		if trees == nil {
			trees = []TreeOutput{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(trees)
	case TreeYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, tree := range trees {
			if err := enc.Encode(tree); err != nil {
				return err
			}
		}
		return enc.Close()
	default:
		for i, tree := range trees {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := writeTreePretty(w, tree, opts); err != nil {
				return err
			}
		}
		return nil
	}
}

type treeStyle struct {
	keyword, name, typ, dim *color.Color
}

func newTreeStyle(enabled bool) treeStyle {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return treeStyle{
		keyword: mk(color.FgMagenta),
		name:    mk(color.Bold),
		typ:     mk(color.FgYellow),
		dim:     mk(color.Faint),
	}
}

func writeTreePretty(w io.Writer, tree TreeOutput, opts TreeOpts) error {
	st := newTreeStyle(opts.Color)
	var sb strings.Builder
	if tree.File != "" {
		sb.WriteString(st.name.Sprint(tree.File))
		sb.WriteString("\n")
	}
	writeScopeBody(&sb, st, tree.Root, 1)
	fmt.Fprintf(&sb, "%s\n", st.dim.Sprintf("(%d scopes, %d functions, %d variables)",
		tree.Stats.Scopes, tree.Stats.Functions, tree.Stats.Variables))
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeScopeBody(sb *strings.Builder, st treeStyle, node ScopeNode, depth int) {
	indent := strings.Repeat("  ", depth)

	// выравниваем типы переменных по самому длинному имени
	width := 0
	for _, v := range node.Variables {
		width = max(width, runewidth.StringWidth(v.Name))
	}
	for _, v := range node.Variables {
		pad := strings.Repeat(" ", width-runewidth.StringWidth(v.Name))
		fmt.Fprintf(sb, "%s%s%s : %s\n", indent, v.Name, pad, st.typ.Sprint(v.Type))
	}
	for _, fn := range node.Functions {
		fmt.Fprintf(sb, "%s%s %s%s\n", indent, st.keyword.Sprint("def"), fn.Signature, posSuffix(st, fn.Pos))
		if fn.Body != nil {
			writeScopeBody(sb, st, *fn.Body, depth+1)
		}
	}
	for _, child := range node.Children {
		header := st.keyword.Sprint(child.Kind) + " " + st.name.Sprint(child.Name)
		if child.Super != "" {
			header += " < " + child.Super
		}
		fmt.Fprintf(sb, "%s%s%s\n", indent, header, posSuffix(st, child.Pos))
		writeScopeBody(sb, st, child, depth+1)
	}
}

func posSuffix(st treeStyle, pos string) string {
	if pos == "" {
		return ""
	}
	return "  " + st.dim.Sprint("@"+pos)
}
