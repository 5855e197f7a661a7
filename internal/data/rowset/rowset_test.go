package rowset

import (
	"errors"
	"testing"
	"time"
)

func TestTableCoercion(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tbl := NewTable(
		[]string{"ID", "name", "ACTIVE", "ONLINE", "OFFLINE", "COUNT"},
		[][]any{
			{int64(7), []byte("Widget"), int64(1), "2024-03-01 12:30:00", nil, "12"},
			{"8", "Gadget", "false", when, "", 3.0},
		},
	)
	if tbl.Len() != 2 {
		t.Fatalf("Len: want=2 got=%d", tbl.Len())
	}

	r := tbl.Row(0)
	if id, err := r.Int("id"); err != nil || id != 7 {
		t.Fatalf("Int(id): got=%d err=%v", id, err)
	}
	if name, err := r.String("NAME"); err != nil || name != "Widget" {
		t.Fatalf("String(NAME): got=%q err=%v", name, err)
	}
	if active, err := r.Boolean("ACTIVE"); err != nil || !active {
		t.Fatalf("Boolean(ACTIVE): got=%v err=%v", active, err)
	}
	if online, err := r.Date("ONLINE"); err != nil || !online.Equal(when) {
		t.Fatalf("Date(ONLINE): got=%v err=%v", online, err)
	}
	if offline, err := r.Date("OFFLINE"); err != nil || !offline.IsZero() {
		t.Fatalf("Date(OFFLINE): got=%v err=%v", offline, err)
	}
	if n, err := r.IntAt(5); err != nil || n != 12 {
		t.Fatalf("IntAt(5): got=%d err=%v", n, err)
	}

	r = tbl.Row(1)
	if id, err := r.IntAt(0); err != nil || id != 8 {
		t.Fatalf("IntAt(0): got=%d err=%v", id, err)
	}
	if active, err := r.Boolean("ACTIVE"); err != nil || active {
		t.Fatalf("Boolean(ACTIVE): got=%v err=%v", active, err)
	}
	if online, err := r.DateAt(3); err != nil || !online.Equal(when) {
		t.Fatalf("DateAt(3): got=%v err=%v", online, err)
	}
	if offline, err := r.Date("OFFLINE"); err != nil || !offline.IsZero() {
		t.Fatalf("Date(OFFLINE) empty: got=%v err=%v", offline, err)
	}
	if n, err := r.Int("COUNT"); err != nil || n != 3 {
		t.Fatalf("Int(COUNT): got=%d err=%v", n, err)
	}
	if s, err := r.StringAt(5); err != nil || s != "3" {
		t.Fatalf("StringAt(5): got=%q err=%v", s, err)
	}
}

func TestTableMalformed(t *testing.T) {
	tbl := NewTable([]string{"ID", "ACTIVE", "ONLINE", "BIG"}, [][]any{{"seven", "maybe", "yesterday", float64(1 << 63)}})
	r := tbl.Row(0)

	cases := []struct {
		name string
		read func() error
	}{
		{"int", func() error { _, err := r.Int("ID"); return err }},
		{"int overflow", func() error { _, err := r.Int("BIG"); return err }},
		{"bool", func() error { _, err := r.Boolean("ACTIVE"); return err }},
		{"date", func() error { _, err := r.Date("ONLINE"); return err }},
		{"missing", func() error { _, err := r.String("NOPE"); return err }},
		{"position", func() error { _, err := r.StringAt(9); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read()
			var malformed *MalformedRowError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedRowError, got=%T (%v)", err, err)
			}
		})
	}
}
