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

type UserGroupRepo interface {
	ListByUser(ctx context.Context, tx gateway.Resource, domainName, user string) ([]*record.Record, error)
	ListByGroup(ctx context.Context, tx gateway.Resource, domainName, group string) ([]*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Delete(ctx context.Context, tx gateway.Resource, domainName, user, group string) error
}

type userGroupRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewUserGroupRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) UserGroupRepo {
	return &userGroupRepo{gw: gw, res: res, log: baseLog.With("repo", "UserGroupRepo")}
}

func (r *userGroupRepo) ListByUser(ctx context.Context, tx gateway.Resource, domainName, user string) ([]*record.Record, error) {
	q := sqlq.Template("user_group.select_by_user", "reading group memberships").Bind(domainName, user)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.UserGroup.Entity)
}

func (r *userGroupRepo) ListByGroup(ctx context.Context, tx gateway.Resource, domainName, group string) ([]*record.Record, error) {
	q := sqlq.Template("user_group.select_by_group", "reading group members").Bind(domainName, group)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.UserGroup.Entity)
}

func (r *userGroupRepo) Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	q := sqlq.Template("user_group.insert", "inserting group membership").BindRecord(rec)
	return r.gw.Insert(ctx, pick(tx, r.res), q)
}

func (r *userGroupRepo) Delete(ctx context.Context, tx gateway.Resource, domainName, user, group string) error {
	q := sqlq.Template("user_group.delete", "deleting group membership").Bind(domainName, user, group)
	return r.gw.Delete(ctx, pick(tx, r.res), q)
}

type PermissionRepo interface {
	ListByContent(ctx context.Context, tx gateway.Resource, domainName string, content int) ([]*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, recs ...*record.Record) error
	DeleteByContent(ctx context.Context, tx gateway.Resource, domainName string, content int) error
}

type permissionRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewPermissionRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) PermissionRepo {
	return &permissionRepo{gw: gw, res: res, log: baseLog.With("repo", "PermissionRepo")}
}

// ListByContent returns the permissions set directly on one object; content
// 0 holds the domain root permissions. Nothing is inherited from parents.
func (r *permissionRepo) ListByContent(ctx context.Context, tx gateway.Resource, domainName string, content int) ([]*record.Record, error) {
	q := sqlq.Template("permission.select_by_content", "reading permissions").Bind(domainName, content)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.Permission.Entity)
}

func (r *permissionRepo) Insert(ctx context.Context, tx gateway.Resource, recs ...*record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		for _, rec := range recs {
			if rec == nil {
				continue
			}
			q := sqlq.Template("permission.insert", "inserting permission").BindRecord(rec)
			if err := r.gw.Insert(ctx, res, q); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *permissionRepo) DeleteByContent(ctx context.Context, tx gateway.Resource, domainName string, content int) error {
	q := sqlq.Template("permission.delete_by_content", "deleting permissions").Bind(domainName, content)
	return r.gw.Delete(ctx, pick(tx, r.res), q)
}

type LockRepo interface {
	Get(ctx context.Context, tx gateway.Resource, domainName string, content int) (*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Delete(ctx context.Context, tx gateway.Resource, domainName string, content int) error
}

type lockRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewLockRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) LockRepo {
	return &lockRepo{gw: gw, res: res, log: baseLog.With("repo", "LockRepo")}
}

func (r *lockRepo) Get(ctx context.Context, tx gateway.Resource, domainName string, content int) (*record.Record, error) {
	q := sqlq.Template("lock.select_by_content", "reading content lock").Bind(domainName, content)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.Lock.Entity)
}

// Insert takes the lock. A second lock on the same object fails with a
// gateway.CodeConflict error.
func (r *lockRepo) Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Insert(ctx, pick(tx, r.res), sqlq.Template("lock.insert", "acquiring content lock").BindRecord(rec))
}

func (r *lockRepo) Delete(ctx context.Context, tx gateway.Resource, domainName string, content int) error {
	q := sqlq.Template("lock.delete", "releasing content lock").Bind(domainName, content)
	return r.gw.Delete(ctx, pick(tx, r.res), q)
}
