package sqlq

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testCatalog = `
templates:
  widget.insert: |
    INSERT INTO WIDGET (ID, NAME, ACTIVE) VALUES (@ID, @NAME, @ACTIVE)
  widget.select_by_id: SELECT * FROM WIDGET WHERE ID = ?
  widget.note: SELECT '@NOT_A_PARAM ?' AS NOTE FROM WIDGET WHERE NAME = ?
`

func TestQuoteAndInline(t *testing.T) {
	if got := Quote("O'Brien"); got != "'O''Brien'" {
		t.Fatalf("Quote: got=%s", got)
	}

	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := Inline("SELECT * FROM T WHERE A=? AND B IN (?,?) AND C='?' AND D=? AND E=?",
		[]any{"O'Brien", 5, int64(9), when, nil})
	want := "SELECT * FROM T WHERE A='O''Brien' AND B IN (5,9) AND C='?' AND D='2024-01-02 03:04:05' AND E=NULL"
	if got != want {
		t.Fatalf("Inline:\nwant=%s\ngot= %s", want, got)
	}
}

func TestInlineKeepsStatementBoundary(t *testing.T) {
	out := Inline("SELECT 1 FROM T WHERE NAME=? AND X=?", []any{"x'; DROP TABLE T; --", 1})
	if !strings.HasSuffix(out, "AND X=1") {
		t.Fatalf("Inline: statement boundary broken: %s", out)
	}
	if Placeholders(out) != 0 {
		t.Fatalf("Inline: leftover placeholders in %s", out)
	}
	if !strings.Contains(out, "'x''; DROP TABLE T; --'") {
		t.Fatalf("Inline: value not escaped: %s", out)
	}
}

func TestNamedPlaceholders(t *testing.T) {
	got := NamedPlaceholders("UPDATE T SET NAME=@NAME, NOTE='a@b.c' WHERE ID=@ID AND NAME<>@NAME")
	if len(got) != 2 || got[0] != "NAME" || got[1] != "ID" {
		t.Fatalf("NamedPlaceholders: got=%v", got)
	}
}

func TestCatalogResolve(t *testing.T) {
	cat, err := ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if names := cat.WithPrefix("widget."); len(names) != 3 {
		t.Fatalf("WithPrefix: got=%v", names)
	}

	text, args, err := cat.Resolve(Template("widget.select_by_id", "reading widget").Bind(7))
	if err != nil {
		t.Fatalf("Resolve positional: %v", err)
	}
	if text != "SELECT * FROM WIDGET WHERE ID = ?" || len(args) != 1 || args[0] != 7 {
		t.Fatalf("Resolve positional: text=%q args=%v", text, args)
	}

	q := Template("widget.insert", "inserting widget").
		BindNamed("ID", 1).BindNamed("NAME", "Gear").BindNamed("ACTIVE", true)
	_, args, err = cat.Resolve(q)
	if err != nil {
		t.Fatalf("Resolve named: %v", err)
	}
	params, ok := args[0].(map[string]any)
	if len(args) != 1 || !ok || params["NAME"] != "Gear" {
		t.Fatalf("Resolve named: args=%v", args)
	}

	if _, _, err := cat.Resolve(Template("widget.select_by_id", "").Bind(7).Bind(8)); !errors.Is(err, ErrBinding) {
		t.Fatalf("extra arg: expected ErrBinding, got %v", err)
	}
	if _, _, err := cat.Resolve(Template("widget.note", "").Bind("x")); err != nil {
		t.Fatalf("quoted placeholders must not count: %v", err)
	}
}

func TestCatalogResolveErrors(t *testing.T) {
	cat, err := LoadCatalog(strings.NewReader(testCatalog))
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	cases := []struct {
		name string
		q    Query
		want error
	}{
		{"unknown", Template("widget.nope", ""), ErrUnknownTemplate},
		{"missing named", Template("widget.insert", "").BindNamed("ID", 1).BindNamed("NAME", "x"), ErrBinding},
		{"named as positional", Template("widget.insert", "").Bind(1, "x", true), ErrBinding},
		{"mixed", Template("widget.select_by_id", "").Bind(1).BindNamed("ID", 1), ErrBinding},
		{"empty raw", Raw("  ", ""), ErrBinding},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := cat.Resolve(tc.q); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCatalogAddRejectsDuplicates(t *testing.T) {
	cat := NewCatalog()
	if err := cat.Add("a", "SELECT 1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := cat.Add("a", "SELECT 2"); err == nil {
		t.Fatalf("Add: expected duplicate error")
	}
	other := NewCatalog()
	_ = other.Add("a", "SELECT 3")
	if err := cat.Merge(other); err == nil {
		t.Fatalf("Merge: expected duplicate error")
	}
}
