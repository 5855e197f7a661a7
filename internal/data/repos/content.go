package repos

import (
	"context"
	"fmt"

	"github.com/cederberg/liquidsite-sub003/internal/data/contentquery"
	"github.com/cederberg/liquidsite-sub003/internal/data/db"
	"github.com/cederberg/liquidsite-sub003/internal/data/gateway"
	"github.com/cederberg/liquidsite-sub003/internal/data/record"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/domain"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

type ContentRepo interface {
	// Query starts a builder for the connected database's dialect.
	Query(domainName string) *contentquery.Builder
	Count(ctx context.Context, tx gateway.Resource, q *contentquery.Builder) (int, error)
	Select(ctx context.Context, tx gateway.Resource, q *contentquery.Builder) ([]*record.Record, error)
	GetLatest(ctx context.Context, tx gateway.Resource, domainName string, id int) (*record.Record, error)
	GetPublished(ctx context.Context, tx gateway.Resource, domainName string, id int) (*record.Record, error)
	GetRevision(ctx context.Context, tx gateway.Resource, domainName string, id, revision int) (*record.Record, error)
	Revisions(ctx context.Context, tx gateway.Resource, domainName string, id int) ([]*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Delete(ctx context.Context, tx gateway.Resource, domainName string, id int) error
	DeleteRevision(ctx context.Context, tx gateway.Resource, domainName string, id, revision int) error
}

type contentRepo struct {
	gw      *gateway.Gateway
	res     *db.Resource
	dialect contentquery.Dialect
	log     *logger.Logger
}

func NewContentRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) ContentRepo {
	dialect := contentquery.DialectMySQL
	if res != nil && res.DB() != nil && res.DB().Dialector.Name() == db.DriverPostgres {
		dialect = contentquery.DialectPostgres
	}
	return &contentRepo{gw: gw, res: res, dialect: dialect, log: baseLog.With("repo", "ContentRepo")}
}

func (r *contentRepo) Query(domainName string) *contentquery.Builder {
	return contentquery.New(domainName, contentquery.WithDialect(r.dialect))
}

func (r *contentRepo) Count(ctx context.Context, tx gateway.Resource, q *contentquery.Builder) (int, error) {
	st, err := q.RenderCount()
	if err != nil {
		return 0, gateway.Wrap("count", "counting content", err)
	}
	return r.gw.Count(ctx, pick(tx, r.res), st.Query("counting content"))
}

func (r *contentRepo) Select(ctx context.Context, tx gateway.Resource, q *contentquery.Builder) ([]*record.Record, error) {
	st, err := q.RenderSelect()
	if err != nil {
		return nil, gateway.Wrap("select_many", "reading content", err)
	}
	return r.gw.SelectMany(ctx, pick(tx, r.res), st.Query("reading content"), domain.Content.Entity)
}

func (r *contentRepo) GetLatest(ctx context.Context, tx gateway.Resource, domainName string, id int) (*record.Record, error) {
	q := sqlq.Template("content.select_latest", "reading content").Bind(domainName, id)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.Content.Entity)
}

func (r *contentRepo) GetPublished(ctx context.Context, tx gateway.Resource, domainName string, id int) (*record.Record, error) {
	q := sqlq.Template("content.select_published", "reading content").Bind(domainName, id)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.Content.Entity)
}

func (r *contentRepo) GetRevision(ctx context.Context, tx gateway.Resource, domainName string, id, revision int) (*record.Record, error) {
	q := sqlq.Template("content.select_revision", "reading content revision").Bind(domainName, id, revision)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.Content.Entity)
}

func (r *contentRepo) Revisions(ctx context.Context, tx gateway.Resource, domainName string, id int) ([]*record.Record, error) {
	q := sqlq.Template("content.select_revisions", "reading content revisions").Bind(domainName, id)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.Content.Entity)
}

// Insert stores a new revision. An ID of zero allocates a new object id,
// which is written back into rec; allocation commits on its own and fails
// with gateway.ErrAllocInTx when tx is a caller's transaction. Status flags
// set on rec are taken away from every other revision of the object.
func (r *contentRepo) Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	if record.Get(rec, domain.Content.ID) == 0 {
		maxQuery := sqlq.Template("content.max_id", "allocating content id")
		id, err := r.gw.InsertWithNewID(ctx, pick(tx, r.res), maxQuery, func(id int) sqlq.Query {
			c := rec.Clone()
			record.Set(c, domain.Content.ID, id)
			return sqlq.Template("content.insert", "inserting content").BindRecord(c)
		})
		if err != nil {
			return err
		}
		record.Set(rec, domain.Content.ID, id)
		r.log.Debug("Content id allocated", "id", id)
		return nil
	}
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		q := sqlq.Template("content.insert", "inserting content").BindRecord(rec)
		if err := r.gw.Insert(ctx, res, q); err != nil {
			return err
		}
		return r.clearStatus(ctx, res, rec)
	})
}

func (r *contentRepo) Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		q := sqlq.Template("content.update", "updating content").BindRecord(rec)
		if err := r.gw.Update(ctx, res, q); err != nil {
			return err
		}
		return r.clearStatus(ctx, res, rec)
	})
}

// clearStatus keeps the latest and published flags unique per object.
func (r *contentRepo) clearStatus(ctx context.Context, res gateway.Resource, rec *record.Record) error {
	domainName := record.Get(rec, domain.Content.Domain)
	id := record.Get(rec, domain.Content.ID)
	revision := record.Get(rec, domain.Content.Revision)
	if domain.IsLatest(rec) {
		q := sqlq.Template("content.clear_latest", "updating content status").Bind(domainName, id, revision)
		if err := r.gw.Update(ctx, res, q); err != nil {
			return err
		}
	}
	if domain.IsPublished(rec) {
		q := sqlq.Template("content.clear_published", "updating content status").Bind(domainName, id, revision)
		if err := r.gw.Update(ctx, res, q); err != nil {
			return err
		}
	}
	return nil
}

var contentCascade = []string{
	"permission.delete_by_content",
	"lock.delete",
	"attribute.delete_by_content",
	"content.delete",
}

// Delete removes every revision of the object and of all objects below it,
// along with their attributes, permissions and locks.
func (r *contentRepo) Delete(ctx context.Context, tx gateway.Resource, domainName string, id int) error {
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		ids, err := r.subtree(ctx, res, domainName, id)
		if err != nil {
			return err
		}
		for i := len(ids) - 1; i >= 0; i-- {
			if err := deleteAll(ctx, r.gw, res, "deleting content", contentCascade, domainName, ids[i]); err != nil {
				return err
			}
		}
		r.log.Debug("Content deleted", "id", id, "objects", len(ids))
		return nil
	})
}

// subtree lists id followed by the ids of all objects below it in the same
// domain, parents before children.
func (r *contentRepo) subtree(ctx context.Context, res gateway.Resource, domainName string, id int) ([]int, error) {
	ids := []int{id}
	seen := map[int]bool{id: true}
	for i := 0; i < len(ids); i++ {
		q := sqlq.Template("content.select_children", "reading content children").Bind(domainName, ids[i], ids[i])
		children, err := r.gw.SelectMany(ctx, res, q, domain.Content.Entity)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			child := record.Get(c, domain.Content.ID)
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}
	return ids, nil
}

func (r *contentRepo) DeleteRevision(ctx context.Context, tx gateway.Resource, domainName string, id, revision int) error {
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		q := sqlq.Template("attribute.delete_by_revision", "deleting content revision").Bind(domainName, id, revision)
		if err := r.gw.Delete(ctx, res, q); err != nil {
			return err
		}
		q = sqlq.Template("content.delete_revision", "deleting content revision").Bind(domainName, id, revision)
		if err := r.gw.Delete(ctx, res, q); err != nil {
			return fmt.Errorf("content %d revision %d: %w", id, revision, err)
		}
		return nil
	})
}
