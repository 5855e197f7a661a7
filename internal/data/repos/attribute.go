package repos

import (
	"context"

	"github.com/cederberg/liquidsite-sub003/internal/data/db"
	"github.com/cederberg/liquidsite-sub003/internal/data/gateway"
	"github.com/cederberg/liquidsite-sub003/internal/data/record"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/domain"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

type AttributeRepo interface {
	ListByContent(ctx context.Context, tx gateway.Resource, domainName string, content, revision int) ([]*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, recs ...*record.Record) error
	DeleteByContent(ctx context.Context, tx gateway.Resource, domainName string, content int) error
}

type attributeRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewAttributeRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) AttributeRepo {
	return &attributeRepo{gw: gw, res: res, log: baseLog.With("repo", "AttributeRepo")}
}

// ListByContent returns the attributes of one content revision, by name.
func (r *attributeRepo) ListByContent(ctx context.Context, tx gateway.Resource, domainName string, content, revision int) ([]*record.Record, error) {
	q := sqlq.Template("attribute.select_by_revision", "reading content attributes").Bind(domainName, content, revision)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.Attribute.Entity)
}

func (r *attributeRepo) Insert(ctx context.Context, tx gateway.Resource, recs ...*record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		for _, rec := range recs {
			if rec == nil {
				continue
			}
			q := sqlq.Template("attribute.insert", "inserting content attribute").BindRecord(rec)
			if err := r.gw.Insert(ctx, res, q); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *attributeRepo) DeleteByContent(ctx context.Context, tx gateway.Resource, domainName string, content int) error {
	q := sqlq.Template("attribute.delete_by_content", "deleting content attributes").Bind(domainName, content)
	return r.gw.Delete(ctx, pick(tx, r.res), q)
}
