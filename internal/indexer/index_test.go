package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/symbols"
)

func indexString(t *testing.T, src string) (*symbols.Table, error) {
	t.Helper()
	table, _, err := IndexSource(context.Background(), source.NewFileSet(), "test.rb", []byte(src), Options{})
	return table, err
}

func mustIndex(t *testing.T, src string) *symbols.Table {
	t.Helper()
	table, err := indexString(t, src)
	if err != nil {
		t.Fatalf("Index(%q): %v", src, err)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return table
}

func mustResolve(t *testing.T, table *symbols.Table, path string) *symbols.Scope {
	t.Helper()
	id, ok := table.Resolve(table.Root, path)
	if !ok {
		t.Fatalf("scope %q not found", path)
	}
	return table.Scope(id)
}

func TestEndToEndClassWithFunction(t *testing.T) {
	table := mustIndex(t, "class Foo\n  def bar(x, y: 1)\n  end\nend")

	root := table.Scope(table.Root)
	if len(root.Children) != 1 {
		t.Fatalf("root children = %v", root.Children)
	}
	foo := mustResolve(t, table, "Foo")
	if foo.Kind != symbols.ScopeClass {
		t.Fatalf("Foo kind = %s", foo.Kind)
	}

	fnID, ok := foo.Function("bar")
	if !ok {
		t.Fatal("bar not registered in Foo")
	}
	fn := table.Function(fnID)
	b := table.Types.Builtins()
	if len(fn.Positional) != 1 || fn.Positional[0].Name != "x" || fn.Positional[0].Type != b.Unknown || fn.Positional[0].HasDefault() {
		t.Fatalf("positional = %+v", fn.Positional)
	}
	y, ok := fn.Keyword["y"]
	if !ok || y.Default == nil || *y.Default != b.Integer || y.Type != b.Unknown {
		t.Fatalf("keyword y = %+v", y)
	}
	body := table.Scope(fn.Body)
	if body == nil || body.Kind != symbols.ScopeBlock || body.Name != "bar" || body.Parent != mustResolveID(t, table, "Foo") {
		t.Fatalf("body = %+v", body)
	}
	if st := table.Stats(); st.Scopes != 2 {
		t.Fatalf("expected Foo and bar body, got %+v", st)
	}
}

func mustResolveID(t *testing.T, table *symbols.Table, path string) symbols.ScopeID {
	t.Helper()
	id, ok := table.Resolve(table.Root, path)
	if !ok {
		t.Fatalf("scope %q not found", path)
	}
	return id
}

func TestRoundTripNesting(t *testing.T) {
	openers := []string{"class C%d", "module M%d", "def f%d(a)"}
	for n := 1; n <= 12; n++ {
		var sb strings.Builder
		for i := range n {
			fmt.Fprintf(&sb, openers[i%len(openers)]+"\n", i)
			sb.WriteString("  if cond\n    x = 1\n  end\n")
		}
		for range n {
			sb.WriteString("end\n")
		}
		table := mustIndex(t, sb.String())
		if st := table.Stats(); st.Scopes != n {
			t.Fatalf("n=%d: scopes = %d", n, st.Scopes)
		}
	}
}

func TestQualifiedDescentIsIdempotent(t *testing.T) {
	src := "module A\n  module B\n  end\nend\n" +
		"class A::B::C\nend\n"
	once := mustIndex(t, src)
	twice := mustIndex(t, src+"class A::B::C\n  def run\n  end\nend\n")

	if got, want := twice.Stats().Scopes, once.Stats().Scopes+1; got != want {
		t.Fatalf("second open must reuse C (only run's body is new): scopes = %d, want %d", got, want)
	}
	c := mustResolve(t, twice, "A::B::C")
	if len(c.Functions) != 1 || len(mustResolve(t, twice, "A::B").Children) != 1 {
		t.Fatalf("C = %+v", c)
	}
}

func TestReopenKeepsKind(t *testing.T) {
	table := mustIndex(t, "module Util\nend\nclass Util\n  X = 1\nend\n")
	util := mustResolve(t, table, "Util")
	if util.Kind != symbols.ScopeModule {
		t.Fatalf("kind = %s, want module", util.Kind)
	}
	if _, ok := util.Var("X"); !ok {
		t.Fatal("reopened scope must receive new declarations")
	}
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"order violation", "def f(a: 1, b)\nend", diag.IdxParameterOrderViolation},
		{"rest after keyword", "def f(a:, *r)\nend", diag.IdxParameterOrderViolation},
		{"unmatched close", "class A\nend\nend", diag.IdxUnmatchedClose},
		{"undefined segment", "class A::B\nend", diag.IdxUndefinedNamespaceSegment},
		{"malformed constant", "module lower\nend", diag.IdxMalformedConstantName},
		{"missing function name", "def\nend", diag.IdxMissingFunctionName},
		{"unterminated assignment", "x = [1, 2\n", diag.IdxUnexpectedEndOfInput},
		{"unterminated params", "def f(a\n", diag.IdxUnexpectedEndOfInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := indexString(t, tt.src)
			if !errors.Is(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code.ID(), err)
			}
			if table != nil {
				t.Fatal("failed run must not return a table")
			}
			if de, ok := diag.AsError(err); !ok || de.Severity != diag.SevError {
				t.Fatalf("expected an error-severity *diag.Error, got %#v", err)
			}
		})
	}
}

func TestUndefinedNamespaceLeavesCursor(t *testing.T) {
	b := NewBuilder(symbols.NewTable(symbols.Hints{}, nil))
	foo, err := b.OpenNamespace(symbols.ScopeClass, "Foo", source.Span{})
	if err != nil {
		t.Fatal(err)
	}
	before := b.Table().Scopes.Len()

	_, err = b.OpenNamespace(symbols.ScopeModule, "X::Y", source.Span{})
	if !errors.Is(err, diag.IdxUndefinedNamespaceSegment) {
		t.Fatalf("expected IdxUndefinedNamespaceSegment, got %v", err)
	}
	if b.Current() != foo {
		t.Fatalf("cursor moved to %d, want %d", b.Current(), foo)
	}
	if b.Table().Scopes.Len() != before {
		t.Fatal("failed open must not create scopes")
	}
}

func TestCloseScopeAtRoot(t *testing.T) {
	b := NewBuilder(symbols.NewTable(symbols.Hints{}, nil))
	if err := b.CloseScope(source.Span{}); !errors.Is(err, diag.IdxUnmatchedClose) {
		t.Fatalf("expected IdxUnmatchedClose, got %v", err)
	}
}

func TestDuplicateFunctionLastWriteWins(t *testing.T) {
	table := mustIndex(t, "class A\n  def run(a)\n  end\n  def stop\n  end\n  def run(a, b = 2)\n    tmp = nil\n  end\nend\n")
	a := mustResolve(t, table, "A")
	if len(a.Functions) != 2 {
		t.Fatalf("functions = %v", a.Functions)
	}
	run := table.Function(a.Functions[0])
	if run.Name != "run" || len(run.Positional) != 2 {
		t.Fatalf("expected the second run in the first slot, got %+v", run)
	}
	body := table.Scope(run.Body)
	if _, ok := body.Var("tmp"); !ok || len(a.Children) != 2 {
		t.Fatalf("body must be reused: children=%v body=%+v", a.Children, body)
	}
}

func TestBlocksDoNotMoveCursor(t *testing.T) {
	src := "class A\n" +
		"  if ready\n    a = 1\n  end\n" +
		"  def f\n    while x do\n      y = 'v'\n    end\n    [1].each do |i|\n    end\n  end\n" +
		"  class << self\n    def build; end\n  end\n" +
		"  after = true\n" +
		"end\n" +
		"top = 1.5\n"
	table := mustIndex(t, src)
	a := mustResolve(t, table, "A")
	b := table.Types.Builtins()

	if typ, _ := a.Var("a"); typ != b.Integer {
		t.Errorf("a = %s", table.Types.String(typ))
	}
	if typ, _ := a.Var("after"); typ != b.Bool {
		t.Errorf("after = %s", table.Types.String(typ))
	}
	if _, ok := a.Function("build"); !ok {
		t.Error("singleton method must land in the class")
	}
	f := mustResolve(t, table, "A::f")
	if typ, _ := f.Var("y"); typ != b.String {
		t.Errorf("y = %s", table.Types.String(typ))
	}
	if typ, _ := table.Scope(table.Root).Var("top"); typ != b.Float {
		t.Errorf("top = %s", table.Types.String(typ))
	}
}

func TestAssignmentTypes(t *testing.T) {
	table := mustIndex(t, "x = 1\n@name = 'a'\nLIST = [1, 2]\nh = {a: 1}\nn = nil\nv = compute(1)\n")
	root := table.Scope(table.Root)
	want := map[string]string{
		"x":     "Integer",
		"@name": "String",
		"LIST":  "Array<Unknown>",
		"h":     "HashMap<Unknown, Unknown>",
		"n":     "Nil",
		"v":     "Unknown",
	}
	for name, typ := range want {
		id, ok := root.Var(name)
		if !ok {
			t.Errorf("%s not recorded", name)
			continue
		}
		if got := table.Types.String(id); got != typ {
			t.Errorf("%s = %s, want %s", name, got, typ)
		}
	}
	if strings.Join(root.VarOrder, ",") != "x,@name,LIST,h,n,v" {
		t.Errorf("order = %v", root.VarOrder)
	}
}

func TestParameterKinds(t *testing.T) {
	table := mustIndex(t, "def f(a, b = 2, *rest, c:, d: \"x\", e: compute(1, 2), **opts, &blk)\nend\n")
	id, _ := table.Scope(table.Root).Function("f")
	fn := table.Function(id)
	b := table.Types.Builtins()

	if len(fn.Positional) != 2 || fn.Positional[1].Default == nil || *fn.Positional[1].Default != b.Integer || fn.Positional[1].Type != b.Unknown {
		t.Fatalf("positional = %+v", fn.Positional)
	}
	if fn.Rest != "rest" || fn.KeywordRest != "opts" || fn.Block != "blk" {
		t.Fatalf("rest/kwrest/block = %q %q %q", fn.Rest, fn.KeywordRest, fn.Block)
	}
	if strings.Join(fn.KeywordOrder, ",") != "c,d,e" {
		t.Fatalf("keyword order = %v", fn.KeywordOrder)
	}
	if fn.Keyword["c"].HasDefault() {
		t.Error("c has no default")
	}
	if d := fn.Keyword["d"]; d.Default == nil || *d.Default != b.String || d.Type != b.Unknown {
		t.Errorf("d = %+v", d)
	}
	if e := fn.Keyword["e"]; e.Default == nil || *e.Default != b.Unknown {
		t.Errorf("e = %+v", e)
	}
	if req, total := fn.Arity(); req != 1 || total != 2 {
		t.Errorf("arity = %d/%d", req, total)
	}
}

func TestEndlessDefOpensNoBody(t *testing.T) {
	table := mustIndex(t, "def sq(x) = x * x\nclass B < Base\nend\n")
	id, ok := table.Scope(table.Root).Function("sq")
	if !ok || table.Function(id).Body.IsValid() {
		t.Fatalf("sq = %+v", table.Function(id))
	}
	if b := mustResolve(t, table, "B"); b.Super != "Base" {
		t.Fatalf("B.Super = %q", b.Super)
	}
}

func TestFunctionNamedLikeClass(t *testing.T) {
	table := mustIndex(t, "class Foo\nend\ndef Foo(x)\n  y = 1\nend\n")
	if mustResolve(t, table, "Foo").Kind != symbols.ScopeClass {
		t.Fatal("def Foo must not reopen the class")
	}
	if _, ok := mustResolve(t, table, "Foo()").Var("y"); !ok {
		t.Fatal("body of def Foo must be a separate block")
	}
}

func TestIndexHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := IndexSource(ctx, source.NewFileSet(), "c.rb", []byte("class A\nend\n"), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScannerWarningsReachReporter(t *testing.T) {
	bag := diag.NewBag(8)
	_, _, err := IndexSource(context.Background(), source.NewFileSet(), "w.rb",
		[]byte("class A\nend\n=begin\nnever closed\n"), Options{Reporter: diag.BagReporter{Bag: bag}})
	if err != nil {
		t.Fatal(err)
	}
	if !bag.HasWarnings() {
		t.Fatal("expected an unterminated comment warning")
	}
}

func TestAssignedBlockOpenersKeepNesting(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"if", "class A\n  def foo\n    x = if y\n      1\n    else\n      2\n    end\n  end\nend\nclass B\nend\n"},
		{"case", "class A\n  def foo\n    x = case v\n    when 1 then :a\n    end\n  end\nend\nclass B\nend\n"},
		{"begin", "class A\n  def foo\n    x = begin\n      load!\n    rescue\n      nil\n    end\n  end\nend\nclass B\nend\n"},
		{"heredoc", "class A\n  def foo\n    sql = <<~SQL\n      end\n    SQL\n  end\nend\nclass B\nend\n"},
		{"percent literal", "class A\n  def foo\n    words = %w[class module end]\n  end\nend\nclass B\nend\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := mustIndex(t, tt.src)
			if _, ok := table.Resolve(table.Root, "B"); !ok {
				t.Fatal("B must stay at top level")
			}
			if _, ok := table.Resolve(table.Root, "A::B"); ok {
				t.Fatal("B nested under A")
			}
			foo := mustResolve(t, table, "A::foo")
			if len(foo.VarOrder) != 1 {
				t.Fatalf("foo vars = %v", foo.VarOrder)
			}
			if typ, _ := foo.Var(foo.VarOrder[0]); typ != table.Types.Builtins().Unknown {
				t.Errorf("%s = %s, want Unknown", foo.VarOrder[0], table.Types.String(typ))
			}
		})
	}
}

func TestGluedSemicolonEnd(t *testing.T) {
	table := mustIndex(t, "class Foo;end\nclass Bar\n  def a;end\nend\n")
	if _, ok := table.Resolve(table.Root, "Bar"); !ok {
		t.Fatal("Bar must stay at top level")
	}
	if _, ok := table.Resolve(table.Root, "Foo::Bar"); ok {
		t.Fatal("Bar nested under Foo")
	}
	if _, ok := mustResolve(t, table, "Bar").Function("a"); !ok {
		t.Error("a not registered in Bar")
	}
}
