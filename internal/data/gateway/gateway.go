// Package gateway executes statements against a caller supplied Resource
// and turns tabular results into records of a given entity.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cederberg/liquidsite-sub003/internal/data/record"
	"github.com/cederberg/liquidsite-sub003/internal/data/rowset"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

// Resource is a connection able to run statements. Transactions, timeouts
// and cancellation belong to the resource, not the gateway.
type Resource interface {
	Query(ctx context.Context, q sqlq.Query) (rowset.Result, error)
	Exec(ctx context.Context, q sqlq.Query) (int64, error)
}

type Gateway struct {
	log    *logger.Logger
	tracer trace.Tracer
}

func New(baseLog *logger.Logger) *Gateway {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Gateway{
		log:    baseLog.With("component", "Gateway"),
		tracer: otel.Tracer("github.com/cederberg/liquidsite-sub003/internal/data/gateway"),
	}
}

// Count reads the first column of the first row as an integer. No rows
// count as zero.
func (g *Gateway) Count(ctx context.Context, res Resource, q sqlq.Query) (int, error) {
	var n int
	err := g.run(ctx, "count", q, func(ctx context.Context) (int, error) {
		result, err := res.Query(ctx, q)
		if err != nil {
			return 0, err
		}
		if result.Len() == 0 {
			return 0, nil
		}
		n, err = result.Row(0).IntAt(0)
		return 1, err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SelectOne hydrates the first row into a record of e. It returns nil and
// no error when the statement yields no rows.
func (g *Gateway) SelectOne(ctx context.Context, res Resource, q sqlq.Query, e *record.Entity) (*record.Record, error) {
	var rec *record.Record
	err := g.run(ctx, "select_one", q, func(ctx context.Context) (int, error) {
		result, err := res.Query(ctx, q)
		if err != nil {
			return 0, err
		}
		if result.Len() == 0 {
			return 0, nil
		}
		rec, err = e.Hydrate(result.Row(0))
		return 1, err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SelectMany hydrates every row. The slice is empty, never nil, for no rows.
func (g *Gateway) SelectMany(ctx context.Context, res Resource, q sqlq.Query, e *record.Entity) ([]*record.Record, error) {
	recs := []*record.Record{}
	err := g.run(ctx, "select_many", q, func(ctx context.Context) (int, error) {
		result, err := res.Query(ctx, q)
		if err != nil {
			return 0, err
		}
		for i := 0; i < result.Len(); i++ {
			rec, err := e.Hydrate(result.Row(i))
			if err != nil {
				return i, err
			}
			recs = append(recs, rec)
		}
		return result.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (g *Gateway) Insert(ctx context.Context, res Resource, q sqlq.Query) error {
	return g.exec(ctx, "insert", res, q)
}

func (g *Gateway) Update(ctx context.Context, res Resource, q sqlq.Query) error {
	return g.exec(ctx, "update", res, q)
}

func (g *Gateway) Delete(ctx context.Context, res Resource, q sqlq.Query) error {
	return g.exec(ctx, "delete", res, q)
}

func (g *Gateway) exec(ctx context.Context, op string, res Resource, q sqlq.Query) error {
	return g.run(ctx, op, q, func(ctx context.Context) (int, error) {
		n, err := res.Exec(ctx, q)
		return int(n), err
	})
}

// allocMu serializes every read-max-then-insert sequence in the process.
var allocMu sync.Mutex

// ErrAllocInTx rejects id allocation on a resource bound to a caller's
// transaction. The lock would be released before that transaction commits.
var ErrAllocInTx = errors.New("id allocation inside a transaction")

// txResource is implemented by resources that know whether they run inside
// a transaction.
type txResource interface {
	InTransaction() bool
}

// InsertWithNewID allocates max(id)+1 from maxQuery and runs the insert
// built for that id, both under one process-wide lock. res must commit each
// statement on its own, so the new row is visible before the lock is
// released; a resource reporting an open transaction fails with
// ErrAllocInTx. Other processes writing the same table are not covered by
// the lock.
func (g *Gateway) InsertWithNewID(ctx context.Context, res Resource, maxQuery sqlq.Query, build func(id int) sqlq.Query) (int, error) {
	if tr, ok := res.(txResource); ok && tr.InTransaction() {
		return 0, wrap("insert", maxQuery, ErrAllocInTx)
	}

	allocMu.Lock()
	defer allocMu.Unlock()

	maxID, err := g.Count(ctx, res, maxQuery)
	if err != nil {
		return 0, err
	}
	id := maxID + 1
	if err := g.Insert(ctx, res, build(id)); err != nil {
		return 0, err
	}
	return id, nil
}

func (g *Gateway) run(ctx context.Context, op string, q sqlq.Query, fn func(ctx context.Context) (int, error)) error {
	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("db.operation", op),
		attribute.String("liquidsite.label", q.Describe()),
		attribute.String("liquidsite.template", q.Name),
	))
	defer span.End()

	start := time.Now()
	g.log.Debug("gateway op started", "op", op, "label", q.Describe(), "template", q.Name)
	rows, err := fn(ctx)
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("db.rows", rows))
	if err != nil {
		err = wrap(op, q, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
		g.log.Warn("gateway op failed", "op", op, "label", q.Describe(), "code", CodeOf(err), "duration", elapsed, "error", err)
		return err
	}
	g.log.Debug("gateway op finished", "op", op, "label", q.Describe(), "rows", rows, "duration", elapsed)
	return nil
}
