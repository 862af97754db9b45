package streamfs

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// tagMapper appends its tag on the way in and its upper-cased tag on the way out
func tagMapper(in, out string) PathMapper {
	return PathMapperFuncs{
		Parameter: func(p, _, _ string) string { return p + "/" + in },
		Result:    func(p, _ string) string { return p + "/" + out },
	}
}

var samplePaths = []string{"/", "/a", "/a/b/c.txt", "relative/x", "", "/a/../b"}

func TestChainOrder(t *testing.T) {
	m := Chain(tagMapper("outer", "OUTER"), tagMapper("inner", "INNER"))

	if got := m.OnPathParameter("/p", "Stat", "name"); got != "/p/outer/inner" {
		t.Fatalf("Parameters should flow outer to inner, got %q", got)
	}
	if got := m.OnPathResult("/p", "Stat"); got != "/p/INNER/OUTER" {
		t.Fatalf("Results should flow inner to outer, got %q", got)
	}
}

func TestChainAssociative(t *testing.T) {
	a := tagMapper("a", "A")
	b := tagMapper("b", "B")
	c := tagMapper("c", "C")

	left := Chain(Chain(a, b), c)
	right := Chain(a, Chain(b, c))
	all := ChainAll(a, b, c)

	for _, p := range samplePaths {
		l := left.OnPathParameter(p, "OpenFile", "name")
		if r := right.OnPathParameter(p, "OpenFile", "name"); l != r {
			t.Fatalf("Parameter mapping differs for %q: %q vs %q", p, l, r)
		}
		if x := all.OnPathParameter(p, "OpenFile", "name"); l != x {
			t.Fatalf("ChainAll parameter differs for %q: %q vs %q", p, l, x)
		}

		l = left.OnPathResult(p, "OpenFile")
		if r := right.OnPathResult(p, "OpenFile"); l != r {
			t.Fatalf("Result mapping differs for %q: %q vs %q", p, l, r)
		}
		if x := all.OnPathResult(p, "OpenFile"); l != x {
			t.Fatalf("ChainAll result differs for %q: %q vs %q", p, l, x)
		}
	}
}

func TestChainIdentity(t *testing.T) {
	m := tagMapper("m", "M")
	for _, p := range samplePaths {
		want := m.OnPathParameter(p, "Remove", "name")
		if got := Chain(IdentityMapper, m).OnPathParameter(p, "Remove", "name"); got != want {
			t.Fatalf("Left identity failed for %q", p)
		}
		if got := Chain(m, IdentityMapper).OnPathParameter(p, "Remove", "name"); got != want {
			t.Fatalf("Right identity failed for %q", p)
		}
		if got := ChainAll().OnPathResult(p, "Remove"); got != p {
			t.Fatalf("Empty chain should be identity, got %q for %q", got, p)
		}
	}
}

func TestChainPassesNames(t *testing.T) {
	var seen []string
	record := PathMapperFuncs{
		Parameter: func(p, fn, param string) string {
			seen = append(seen, fn+":"+param)
			return p
		},
	}

	Chain(record, record).OnPathParameter("/x", "Rename", "newpath")
	if len(seen) != 2 || seen[0] != "Rename:newpath" || seen[1] != "Rename:newpath" {
		t.Fatalf("Both layers should see the operation and parameter names, got %v", seen)
	}
}

func TestChrootMapper(t *testing.T) {
	m := ChrootMapper("/jail")

	params := []struct {
		in, want string
	}{
		{"/", "/jail"},
		{"/a.txt", "/jail/a.txt"},
		{"a/b", "/jail/a/b"},
		{"/../../etc/passwd", "/jail/etc/passwd"},
		{"/a/../b", "/jail/b"},
	}
	for _, tt := range params {
		if got := m.OnPathParameter(tt.in, "OpenFile", "name"); got != tt.want {
			t.Errorf("OnPathParameter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	results := []struct {
		in, want string
	}{
		{"/jail", "/"},
		{"/jail/a.txt", "/a.txt"},
		{"/jailbreak", "/jailbreak"},
		{"/other", "/other"},
	}
	for _, tt := range results {
		if got := m.OnPathResult(tt.in, "OpenFile"); got != tt.want {
			t.Errorf("OnPathResult(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanMapper(t *testing.T) {
	m := CleanMapper()
	if got := m.OnPathParameter("/a//b/./c/..", "Stat", "name"); got != "/a/b" {
		t.Fatalf("Expected cleaned path, got %q", got)
	}
}

func TestAuditMapper(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := Chain(AuditMapper(zap.New(core)), ChrootMapper("/srv"))

	if got := m.OnPathParameter("/data", "Stat", "name"); got != "/srv/data" {
		t.Fatalf("Audit mapper must not change paths, got %q", got)
	}
	m.OnPathResult("/srv/data", "Stat")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["op"] != "Stat" || fields["param"] != "name" || fields["path"] != "/data" {
		t.Fatalf("Unexpected parameter log fields: %v", fields)
	}
	if entries[1].ContextMap()["path"] != "/data" {
		t.Fatalf("Result should be logged after the chroot strips it, got %v", entries[1].ContextMap())
	}

	// A nil logger is allowed
	AuditMapper(nil).OnPathParameter("/x", "Stat", "name")
}
