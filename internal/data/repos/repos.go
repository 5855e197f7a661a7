// Package repos holds the entity-specific gateways. Every method takes an
// optional transaction; a nil tx runs on the repo's own resource.
package repos

import (
	"context"

	"github.com/cederberg/liquidsite-sub003/internal/data/db"
	"github.com/cederberg/liquidsite-sub003/internal/data/gateway"
	"github.com/cederberg/liquidsite-sub003/internal/data/sqlq"
	"github.com/cederberg/liquidsite-sub003/internal/platform/logger"
)

type Repos struct {
	Domain     DomainRepo
	Host       HostRepo
	Content    ContentRepo
	Attribute  AttributeRepo
	User       UserRepo
	Group      GroupRepo
	UserGroup  UserGroupRepo
	Permission PermissionRepo
	Lock       LockRepo
}

// New wires every repo to one resource and one gateway.
func New(res *db.Resource, baseLog *logger.Logger) *Repos {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	gw := gateway.New(baseLog)
	return &Repos{
		Domain:     NewDomainRepo(gw, res, baseLog),
		Host:       NewHostRepo(gw, res, baseLog),
		Content:    NewContentRepo(gw, res, baseLog),
		Attribute:  NewAttributeRepo(gw, res, baseLog),
		User:       NewUserRepo(gw, res, baseLog),
		Group:      NewGroupRepo(gw, res, baseLog),
		UserGroup:  NewUserGroupRepo(gw, res, baseLog),
		Permission: NewPermissionRepo(gw, res, baseLog),
		Lock:       NewLockRepo(gw, res, baseLog),
	}
}

func pick(tx gateway.Resource, def *db.Resource) gateway.Resource {
	if tx != nil {
		return tx
	}
	return def
}

// inTx runs fn on tx when the caller already holds one, otherwise in a new
// transaction on def.
func inTx(ctx context.Context, tx gateway.Resource, def *db.Resource, fn func(res gateway.Resource) error) error {
	if tx != nil {
		return fn(tx)
	}
	return def.InTx(ctx, func(t *db.Resource) error { return fn(t) })
}

// deleteAll runs each delete template with the same arguments, in order.
func deleteAll(ctx context.Context, gw *gateway.Gateway, res gateway.Resource, label string, names []string, args ...any) error {
	for _, name := range names {
		if err := gw.Delete(ctx, res, sqlq.Template(name, label).Bind(args...)); err != nil {
			return err
		}
	}
	return nil
}
