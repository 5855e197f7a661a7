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

type HostRepo interface {
	ListByDomain(ctx context.Context, tx gateway.Resource, domainName string) ([]*record.Record, error)
	Get(ctx context.Context, tx gateway.Resource, name string) (*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Delete(ctx context.Context, tx gateway.Resource, name string) error
}

type hostRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewHostRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) HostRepo {
	return &hostRepo{gw: gw, res: res, log: baseLog.With("repo", "HostRepo")}
}

func (r *hostRepo) ListByDomain(ctx context.Context, tx gateway.Resource, domainName string) ([]*record.Record, error) {
	q := sqlq.Template("host.select_by_domain", "reading hosts").Bind(domainName)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.Host.Entity)
}

// Get looks a host up by name alone; host names are unique across domains.
func (r *hostRepo) Get(ctx context.Context, tx gateway.Resource, name string) (*record.Record, error) {
	if name == "" {
		return nil, nil
	}
	q := sqlq.Template("host.select_by_name", "reading host").Bind(name)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.Host.Entity)
}

func (r *hostRepo) Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Insert(ctx, pick(tx, r.res), sqlq.Template("host.insert", "inserting host").BindRecord(rec))
}

func (r *hostRepo) Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Update(ctx, pick(tx, r.res), sqlq.Template("host.update", "updating host").BindRecord(rec))
}

func (r *hostRepo) Delete(ctx context.Context, tx gateway.Resource, name string) error {
	return r.gw.Delete(ctx, pick(tx, r.res), sqlq.Template("host.delete", "deleting host").Bind(name))
}
