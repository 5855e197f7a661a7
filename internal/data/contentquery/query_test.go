package contentquery

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var widgetSchema = Schema{Table: "WIDGET", Alias: "w"}

func mustSelect(t *testing.T, b *Builder) Statement {
	t.Helper()
	st, err := b.RenderSelect()
	if err != nil {
		t.Fatalf("RenderSelect: %v", err)
	}
	return st
}

func mustCount(t *testing.T, b *Builder) Statement {
	t.Helper()
	st, err := b.RenderCount()
	if err != nil {
		t.Fatalf("RenderCount: %v", err)
	}
	return st
}

func TestWidgetScenario(t *testing.T) {
	b := New("shop", WithSchema(widgetSchema)).
		RequireCategory(3).
		SortByColumn("NAME", true).
		Limit(0, 50)

	st := mustSelect(t, b)
	want := "SELECT w.* FROM WIDGET AS w WHERE w.DOMAIN='shop' AND w.CATEGORY=3 ORDER BY w.NAME LIMIT 0,50"
	if got := st.String(); got != want {
		t.Fatalf("RenderSelect:\nwant=%s\ngot= %s", want, got)
	}
	if st.SQL != "SELECT w.* FROM WIDGET AS w WHERE w.DOMAIN=? AND w.CATEGORY=? ORDER BY w.NAME LIMIT 0,50" {
		t.Fatalf("RenderSelect SQL: %s", st.SQL)
	}
	if len(st.Args) != 2 || st.Args[0] != "shop" || st.Args[1] != 3 {
		t.Fatalf("RenderSelect args: %v", st.Args)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	b := New("site", WithClock(func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) })).
		RequireParent(5).
		RequireOnline(true).
		RequireAttributeValue("color", "red").
		SortByAttributeValue("size", false).
		SortByColumn("NAME", true)

	first, second := mustSelect(t, b), mustSelect(t, b)
	if first.String() != second.String() || first.SQL != second.SQL {
		t.Fatalf("RenderSelect not deterministic:\n%s\n%s", first, second)
	}
	c1, c2 := mustCount(t, b), mustCount(t, b)
	if c1.String() != c2.String() {
		t.Fatalf("RenderCount not deterministic:\n%s\n%s", c1, c2)
	}
}

func TestParentFilter(t *testing.T) {
	single := mustCount(t, New("d").RequireParent(5)).String()
	if !strings.Contains(single, "c.PARENT=5") || strings.Contains(single, " IN ") {
		t.Fatalf("single parent: %s", single)
	}

	multi := mustCount(t, New("d").RequireParent(5).RequireParent(9).RequireParent(5)).String()
	if !strings.Contains(multi, "c.PARENT IN (5,9)") {
		t.Fatalf("multiple parents: %s", multi)
	}

	none := mustCount(t, New("d")).String()
	if strings.Contains(none, "PARENT") || strings.Contains(none, "CATEGORY") {
		t.Fatalf("unconstrained: %s", none)
	}
	if none != "SELECT COUNT(*) FROM LS_CONTENT AS c WHERE c.DOMAIN='d'" {
		t.Fatalf("unconstrained count: %s", none)
	}
}

func TestStatusFilter(t *testing.T) {
	latest := mustCount(t, New("d").RequirePublished(false)).String()
	if !strings.Contains(latest, "(c.STATUS & 1)>0") {
		t.Fatalf("latest: %s", latest)
	}
	published := mustCount(t, New("d").RequirePublished(false).RequirePublished(true)).String()
	if !strings.Contains(published, "(c.STATUS & 2)>0") || strings.Contains(published, "& 1") {
		t.Fatalf("published: %s", published)
	}
}

func TestOnlineFilter(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	st := mustCount(t, New("d", WithClock(func() time.Time { return now })).RequireOnline(true))
	want := "SELECT COUNT(*) FROM LS_CONTENT AS c WHERE c.DOMAIN='d' AND c.ONLINE<='2024-06-01 10:00:00' AND (c.OFFLINE IS NULL OR c.OFFLINE>'2024-06-01 10:00:00')"
	if st.String() != want {
		t.Fatalf("online:\nwant=%s\ngot= %s", want, st.String())
	}
	if len(st.Args) != 3 {
		t.Fatalf("online args: %v", st.Args)
	}

	off := mustCount(t, New("d").RequireOnline(true).RequireOnline(false)).String()
	if strings.Contains(off, "ONLINE") {
		t.Fatalf("online disabled: %s", off)
	}
}

func TestAttributeJoinDedup(t *testing.T) {
	b := New("d").
		RequireAttributeValue("color", "red").
		SortByAttributeValue("color", true)

	if joins := b.Joins(); len(joins) != 1 || joins[0] != "color" {
		t.Fatalf("Joins: %v", joins)
	}
	got := mustSelect(t, b).String()
	want := "SELECT c.* FROM LS_CONTENT AS c" +
		" LEFT JOIN LS_ATTRIBUTE AS a0 ON a0.DOMAIN=c.DOMAIN AND a0.CONTENT=c.ID AND a0.REVISION=c.REVISION AND a0.NAME='color'" +
		" WHERE c.DOMAIN='d' AND a0.DATA='red' ORDER BY a0.DATA LIMIT 0,100"
	if got != want {
		t.Fatalf("RenderSelect:\nwant=%s\ngot= %s", want, got)
	}
	if strings.Count(got, "LEFT JOIN") != 1 {
		t.Fatalf("expected exactly one join: %s", got)
	}
}

func TestAttributeFiltersCompose(t *testing.T) {
	b := New("d").
		SortByAttributeValue("rank", false).
		RequireAttributeValue("color", "red").
		RequireAttributeValue("color", "blue").
		RequireAttributeValue("size", "L")

	sel := mustSelect(t, b).String()
	for _, part := range []string{
		"AS a0 ON", "a0.NAME='rank'",
		"AS a1 ON", "a1.NAME='color'",
		"AS a2 ON", "a2.NAME='size'",
		"a1.DATA IN ('red','blue') AND a2.DATA='L'",
		"ORDER BY a0.DATA DESC",
	} {
		if !strings.Contains(sel, part) {
			t.Fatalf("RenderSelect missing %q:\n%s", part, sel)
		}
	}

	cnt := mustCount(t, b)
	if strings.Contains(cnt.SQL, "a0") || strings.Count(cnt.SQL, "LEFT JOIN") != 2 {
		t.Fatalf("RenderCount must keep only filter joins: %s", cnt.SQL)
	}
	// join name args precede the WHERE args
	if cnt.Args[0] != "color" || cnt.Args[1] != "size" || cnt.Args[2] != "d" {
		t.Fatalf("RenderCount args: %v", cnt.Args)
	}
}

func TestPagination(t *testing.T) {
	b := New("d").RequireAttributeValue("color", "red").SortByAttributeValue("size", true).
		SortByColumn("NAME", false).Limit(20, 10)

	sel := mustSelect(t, b).String()
	if !strings.HasSuffix(sel, "ORDER BY a1.DATA, c.NAME DESC LIMIT 20,10") {
		t.Fatalf("RenderSelect: %s", sel)
	}
	cnt := mustCount(t, b).String()
	for _, forbidden := range []string{"LIMIT", "OFFSET", "ORDER BY", "a1"} {
		if strings.Contains(cnt, forbidden) {
			t.Fatalf("RenderCount contains %q: %s", forbidden, cnt)
		}
	}

	pg := mustSelect(t, New("d", WithDialect(DialectPostgres)).Limit(20, 10)).SQL
	if !strings.HasSuffix(pg, "LIMIT 10 OFFSET 20") {
		t.Fatalf("postgres limit: %s", pg)
	}
}

func TestEscaping(t *testing.T) {
	b := New("O'Brien's").RequireAttributeValue("author", "O'Brien")
	st := mustSelect(t, b)
	if strings.Contains(st.SQL, "Brien") {
		t.Fatalf("values must be bound, not spliced: %s", st.SQL)
	}
	lit := st.String()
	if !strings.Contains(lit, "c.DOMAIN='O''Brien''s'") || !strings.Contains(lit, "a0.DATA='O''Brien'") {
		t.Fatalf("escaped literal: %s", lit)
	}
	if strings.Count(lit, "'")%2 != 0 {
		t.Fatalf("unbalanced quotes: %s", lit)
	}
}

func TestRenderErrors(t *testing.T) {
	cases := map[string]*Builder{
		"empty domain":   New(" "),
		"bad sort":       New("d").SortByColumn("NAME; DROP TABLE X", true),
		"bad limit":      New("d").Limit(-1, 10),
		"bad table name": New("d", WithSchema(Schema{Table: "LS CONTENT"})),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := b.RenderSelect(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("RenderSelect: want ErrInvalid, got %v", err)
			}
			if _, err := b.RenderCount(); err == nil {
				t.Fatalf("RenderCount: expected error")
			}
		})
	}
}
