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

type DomainRepo interface {
	Count(ctx context.Context, tx gateway.Resource) (int, error)
	List(ctx context.Context, tx gateway.Resource) ([]*record.Record, error)
	Get(ctx context.Context, tx gateway.Resource, name string) (*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Delete(ctx context.Context, tx gateway.Resource, name string) error
}

type domainRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewDomainRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) DomainRepo {
	repoLog := baseLog.With("repo", "DomainRepo")
	return &domainRepo{gw: gw, res: res, log: repoLog}
}

func (r *domainRepo) Count(ctx context.Context, tx gateway.Resource) (int, error) {
	return r.gw.Count(ctx, pick(tx, r.res), sqlq.Template("domain.count", "counting domains"))
}

func (r *domainRepo) List(ctx context.Context, tx gateway.Resource) ([]*record.Record, error) {
	return r.gw.SelectMany(ctx, pick(tx, r.res), sqlq.Template("domain.select_all", "reading domains"), domain.Domain.Entity)
}

func (r *domainRepo) Get(ctx context.Context, tx gateway.Resource, name string) (*record.Record, error) {
	if name == "" {
		return nil, nil
	}
	q := sqlq.Template("domain.select_by_name", "reading domain").Bind(name)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.Domain.Entity)
}

func (r *domainRepo) Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Insert(ctx, pick(tx, r.res), sqlq.Template("domain.insert", "inserting domain").BindRecord(rec))
}

func (r *domainRepo) Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Update(ctx, pick(tx, r.res), sqlq.Template("domain.update", "updating domain").BindRecord(rec))
}

// domainCascade lists what goes with a domain, children before parents.
var domainCascade = []string{
	"attribute.delete_by_domain",
	"permission.delete_by_domain",
	"lock.delete_by_domain",
	"content.delete_by_domain",
	"user_group.delete_by_domain",
	"user.delete_by_domain",
	"group.delete_by_domain",
	"host.delete_by_domain",
	"domain.delete",
}

// Delete removes the domain together with every object stored in it.
func (r *domainRepo) Delete(ctx context.Context, tx gateway.Resource, name string) error {
	if name == "" {
		return nil
	}
	err := inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		return deleteAll(ctx, r.gw, res, "deleting domain", domainCascade, name)
	})
	if err != nil {
		return err
	}
	r.log.Info("Domain deleted", "domain", name)
	return nil
}
