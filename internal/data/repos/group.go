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

type GroupRepo interface {
	List(ctx context.Context, tx gateway.Resource, domainName string) ([]*record.Record, error)
	Get(ctx context.Context, tx gateway.Resource, domainName, name string) (*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Delete(ctx context.Context, tx gateway.Resource, domainName, name string) error
}

type groupRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewGroupRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) GroupRepo {
	return &groupRepo{gw: gw, res: res, log: baseLog.With("repo", "GroupRepo")}
}

func (r *groupRepo) List(ctx context.Context, tx gateway.Resource, domainName string) ([]*record.Record, error) {
	q := sqlq.Template("group.select_by_domain", "reading groups").Bind(domainName)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.Group.Entity)
}

func (r *groupRepo) Get(ctx context.Context, tx gateway.Resource, domainName, name string) (*record.Record, error) {
	if name == "" {
		return nil, nil
	}
	q := sqlq.Template("group.select_by_name", "reading group").Bind(domainName, name)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.Group.Entity)
}

func (r *groupRepo) Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Insert(ctx, pick(tx, r.res), sqlq.Template("group.insert", "inserting group").BindRecord(rec))
}

func (r *groupRepo) Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Update(ctx, pick(tx, r.res), sqlq.Template("group.update", "updating group").BindRecord(rec))
}

var groupCascade = []string{
	"user_group.delete_by_group",
	"permission.delete_by_group",
	"group.delete",
}

func (r *groupRepo) Delete(ctx context.Context, tx gateway.Resource, domainName, name string) error {
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		return deleteAll(ctx, r.gw, res, "deleting group", groupCascade, domainName, name)
	})
}
