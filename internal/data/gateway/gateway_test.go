package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cederberg/liquidsite-sub003/internal/data/contentquery"
	"github.com/cederberg/liquidsite-sub003/internal/data/record"
	"github.com/cederberg/liquidsite-sub003/internal/data/rowset"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

var (
	widgetID     = record.Int("ID", 0)
	widgetName   = record.String("NAME", "")
	widgetActive = record.Boolean("ACTIVE", true)
	widget       = record.NewEntity("WIDGET", widgetID, widgetName, widgetActive)
)

// fakeResource answers every Query with result and every Exec with
// affected, unless err is set.
type fakeResource struct {
	result   rowset.Result
	affected int64
	err      error
	queries  []sqlq.Query
}

func (f *fakeResource) Query(_ context.Context, q sqlq.Query) (rowset.Result, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeResource) Exec(_ context.Context, q sqlq.Query) (int64, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return 0, f.err
	}
	return f.affected, nil
}

func widgetRows(rows ...[]any) rowset.Result {
	return rowset.NewTable([]string{"ID", "NAME", "ACTIVE"}, rows)
}

func TestCount(t *testing.T) {
	gw := New(logger.Nop())
	ctx := context.Background()

	res := &fakeResource{result: rowset.NewTable([]string{"COUNT(*)"}, [][]any{{int64(12)}})}
	n, err := gw.Count(ctx, res, sqlq.Raw("SELECT COUNT(*) FROM WIDGET", "counting widgets"))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 12 {
		t.Fatalf("Count: want=12 got=%d", n)
	}

	res = &fakeResource{result: rowset.NewTable([]string{"COUNT(*)"}, nil)}
	if n, err = gw.Count(ctx, res, sqlq.Raw("SELECT COUNT(*) FROM WIDGET", "")); err != nil || n != 0 {
		t.Fatalf("Count no rows: got=%d err=%v", n, err)
	}
}

func TestSelectOne(t *testing.T) {
	gw := New(logger.Nop())
	ctx := context.Background()
	q := sqlq.Template("widget.select", "reading widget")

	res := &fakeResource{result: widgetRows(
		[]any{int64(1), "first", int64(1)},
		[]any{int64(2), "second", int64(0)},
	)}
	rec, err := gw.SelectOne(ctx, res, q, widget)
	if err != nil {
		t.Fatalf("SelectOne: %v", err)
	}
	if record.Get(rec, widgetID) != 1 || record.Get(rec, widgetName) != "first" {
		t.Fatalf("SelectOne: unexpected %v", rec.Named())
	}

	res = &fakeResource{result: widgetRows()}
	rec, err = gw.SelectOne(ctx, res, q, widget)
	if err != nil || rec != nil {
		t.Fatalf("SelectOne no rows: rec=%v err=%v", rec, err)
	}
}

func TestSelectMany(t *testing.T) {
	gw := New(logger.Nop())
	ctx := context.Background()
	q := sqlq.Template("widget.list", "reading widgets")

	res := &fakeResource{result: widgetRows(
		[]any{int64(1), "first", true},
		[]any{int64(2), "second", false},
	)}
	recs, err := gw.SelectMany(ctx, res, q, widget)
	if err != nil {
		t.Fatalf("SelectMany: %v", err)
	}
	if len(recs) != 2 || record.Get(recs[1], widgetName) != "second" || record.Get(recs[1], widgetActive) {
		t.Fatalf("SelectMany: unexpected %d records", len(recs))
	}

	res = &fakeResource{result: widgetRows()}
	recs, err = gw.SelectMany(ctx, res, q, widget)
	if err != nil {
		t.Fatalf("SelectMany no rows: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("SelectMany no rows: want empty non-nil slice, got %#v", recs)
	}
}

func TestFailuresAreAccessErrors(t *testing.T) {
	gw := New(logger.Nop())
	ctx := context.Background()
	boom := errors.New("connection refused")
	q := sqlq.Template("widget.list", "reading widgets")

	res := &fakeResource{err: boom}
	_, err := gw.SelectMany(ctx, res, q, widget)
	var accErr *AccessError
	if !errors.As(err, &accErr) {
		t.Fatalf("SelectMany: expected AccessError, got %T (%v)", err, err)
	}
	if accErr.Op != "select_many" || accErr.Code != CodeInternal || !errors.Is(err, boom) {
		t.Fatalf("SelectMany: unexpected %+v", accErr)
	}
	if !strings.HasPrefix(err.Error(), "reading widgets: ") {
		t.Fatalf("Error: got=%q", err.Error())
	}

	for name, call := range map[string]func() error{
		"count":      func() error { _, err := gw.Count(ctx, res, q); return err },
		"select_one": func() error { _, err := gw.SelectOne(ctx, res, q, widget); return err },
		"insert":     func() error { return gw.Insert(ctx, res, q) },
		"update":     func() error { return gw.Update(ctx, res, q) },
		"delete":     func() error { return gw.Delete(ctx, res, q) },
	} {
		if err := call(); !errors.As(err, &accErr) || accErr.Op != name {
			t.Fatalf("%s: expected AccessError, got %v", name, err)
		}
	}
}

func TestHydrationFailureIsDataFormat(t *testing.T) {
	gw := New(logger.Nop())
	res := &fakeResource{result: widgetRows(
		[]any{int64(1), "ok", true},
		[]any{"two", "bad id", true},
	)}
	_, err := gw.SelectMany(context.Background(), res, sqlq.Template("widget.list", ""), widget)
	if !IsCode(err, CodeDataFormat) {
		t.Fatalf("expected data_format code, got %q (%v)", CodeOf(err), err)
	}
	var dfe *record.DataFormatError
	if !errors.As(err, &dfe) || dfe.Column != "ID" {
		t.Fatalf("expected DataFormatError on ID, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"pg unique", &pgconn.PgError{Code: "23505"}, CodeConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, CodeConstraint},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: LS_DOMAIN.NAME"), CodeConflict},
		{"sqlite not null", errors.New("NOT NULL constraint failed: LS_USER.NAME"), CodeConstraint},
		{"canceled", context.Canceled, CodeRetryable},
		{"binding", sqlq.ErrBinding, CodeBinding},
		{"render", fmt.Errorf("%w: limit -1,0", contentquery.ErrInvalid), CodeBinding},
		{"other", errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.err); got != tc.want {
				t.Fatalf("classify: want=%s got=%s", tc.want, got)
			}
		})
	}
}

func TestWrapKeepsAccessError(t *testing.T) {
	inner := Wrap("count", "counting content", contentquery.ErrInvalid)
	if !IsCode(inner, CodeBinding) || inner.Error() != "counting content: "+contentquery.ErrInvalid.Error() {
		t.Fatalf("Wrap: got %q (%s)", inner, CodeOf(inner))
	}
	if again := Wrap("select_many", "other", inner); again != inner {
		t.Fatalf("Wrap re-wrapped an AccessError: %v", again)
	}
	if Wrap("count", "x", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}

// tableResource is a concurrency-safe fake holding a single id column.
type tableResource struct {
	mu  sync.Mutex
	ids map[int]bool
	dup bool
}

func (r *tableResource) Query(context.Context, sqlq.Query) (rowset.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxID := 0
	for id := range r.ids {
		if id > maxID {
			maxID = id
		}
	}
	var v any
	if maxID > 0 {
		v = int64(maxID)
	}
	return rowset.NewTable([]string{"MAX(ID)"}, [][]any{{v}}), nil
}

func (r *tableResource) Exec(_ context.Context, q sqlq.Query) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := q.Params["ID"].(int)
	if r.ids[id] {
		r.dup = true
	}
	r.ids[id] = true
	return 1, nil
}

func TestInsertWithNewIDIsSerialized(t *testing.T) {
	gw := New(logger.Nop())
	res := &tableResource{ids: map[int]bool{}}
	maxQuery := sqlq.Raw("SELECT MAX(ID) FROM WIDGET", "reading max widget id")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.InsertWithNewID(context.Background(), res, maxQuery, func(id int) sqlq.Query {
				return sqlq.Template("widget.insert", "inserting widget").BindNamed("ID", id)
			})
			if err != nil {
				t.Errorf("InsertWithNewID: %v", err)
			}
		}()
	}
	wg.Wait()

	if res.dup {
		t.Fatalf("duplicate id allocated")
	}
	if len(res.ids) != 32 || !res.ids[1] || !res.ids[32] {
		t.Fatalf("allocated ids: %v", res.ids)
	}
}

// txTableResource reports an open transaction.
type txTableResource struct {
	tableResource
}

func (r *txTableResource) InTransaction() bool { return true }

func TestInsertWithNewIDRejectsTransaction(t *testing.T) {
	gw := New(logger.Nop())
	res := &txTableResource{tableResource{ids: map[int]bool{}}}
	maxQuery := sqlq.Raw("SELECT MAX(ID) FROM WIDGET", "reading max widget id")

	id, err := gw.InsertWithNewID(context.Background(), res, maxQuery, func(id int) sqlq.Query {
		return sqlq.Template("widget.insert", "inserting widget").BindNamed("ID", id)
	})
	if !errors.Is(err, ErrAllocInTx) || !IsCode(err, CodeBinding) {
		t.Fatalf("InsertWithNewID in tx: id=%d err=%v (%s)", id, err, CodeOf(err))
	}
	if len(res.ids) != 0 {
		t.Fatalf("rows inserted despite rejection: %v", res.ids)
	}
}
