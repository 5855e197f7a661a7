package repos

import (
	"context"
	"strings"

	"github.com/cederberg/liquidsite-sub003/internal/data/db"
	"github.com/cederberg/liquidsite-sub003/internal/data/gateway"
	"github.com/cederberg/liquidsite-sub003/internal/data/record"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/domain"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

type UserRepo interface {
	// Count and List match users whose name contains filter; "" matches all.
	Count(ctx context.Context, tx gateway.Resource, domainName, filter string) (int, error)
	List(ctx context.Context, tx gateway.Resource, domainName, filter string, offset, limit int) ([]*record.Record, error)
	Get(ctx context.Context, tx gateway.Resource, domainName, name string) (*record.Record, error)
	FindByEmail(ctx context.Context, tx gateway.Resource, domainName, email string) ([]*record.Record, error)
	Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error
	Delete(ctx context.Context, tx gateway.Resource, domainName, name string) error
}

type userRepo struct {
	gw  *gateway.Gateway
	res *db.Resource
	log *logger.Logger
}

func NewUserRepo(gw *gateway.Gateway, res *db.Resource, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{gw: gw, res: res, log: repoLog}
}

func likePattern(filter string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(filter)) + "%"
}

func (r *userRepo) Count(ctx context.Context, tx gateway.Resource, domainName, filter string) (int, error) {
	q := sqlq.Template("user.count_by_domain", "counting users").Bind(domainName, likePattern(filter))
	return r.gw.Count(ctx, pick(tx, r.res), q)
}

func (r *userRepo) List(ctx context.Context, tx gateway.Resource, domainName, filter string, offset, limit int) ([]*record.Record, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return []*record.Record{}, nil
	}
	q := sqlq.Template("user.select_by_domain", "reading users").Bind(domainName, likePattern(filter), limit, offset)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.User.Entity)
}

func (r *userRepo) Get(ctx context.Context, tx gateway.Resource, domainName, name string) (*record.Record, error) {
	if name == "" {
		return nil, nil
	}
	q := sqlq.Template("user.select_by_name", "reading user").Bind(domainName, name)
	return r.gw.SelectOne(ctx, pick(tx, r.res), q, domain.User.Entity)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx gateway.Resource, domainName, email string) ([]*record.Record, error) {
	if email == "" {
		return []*record.Record{}, nil
	}
	q := sqlq.Template("user.select_by_email", "reading users").Bind(domainName, email)
	return r.gw.SelectMany(ctx, pick(tx, r.res), q, domain.User.Entity)
}

func (r *userRepo) Insert(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Insert(ctx, pick(tx, r.res), sqlq.Template("user.insert", "inserting user").BindRecord(rec))
}

func (r *userRepo) Update(ctx context.Context, tx gateway.Resource, rec *record.Record) error {
	if rec == nil {
		return nil
	}
	return r.gw.Update(ctx, pick(tx, r.res), sqlq.Template("user.update", "updating user").BindRecord(rec))
}

var userCascade = []string{
	"user_group.delete_by_user",
	"permission.delete_by_user",
	"lock.delete_by_user",
	"user.delete",
}

// Delete removes the user with its group memberships, permissions and
// locks.
func (r *userRepo) Delete(ctx context.Context, tx gateway.Resource, domainName, name string) error {
	return inTx(ctx, tx, r.res, func(res gateway.Resource) error {
		return deleteAll(ctx, r.gw, res, "deleting user", userCascade, domainName, name)
	})
}
