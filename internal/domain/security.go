package domain

import (
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/record"
)

// UserTable is LS_USER. Domain "" holds the superusers.
type UserTable struct {
	Entity   *record.Entity
	Domain   *record.Column[string]
	Name     *record.Column[string]
	Password *record.Column[string]
	Enabled  *record.Column[bool]
	RealName *record.Column[string]
	Email    *record.Column[string]
	Comment  *record.Column[string]
}

var User = defineUser()

func defineUser() *UserTable {
	t := &UserTable{
		Domain:   record.String("DOMAIN", ""),
		Name:     record.String("NAME", ""),
		Password: record.String("PASSWORD", ""),
		Enabled:  record.Boolean("ENABLED", true),
		RealName: record.String("REAL_NAME", ""),
		Email:    record.String("EMAIL", ""),
		Comment:  record.String("COMMENT", ""),
	}
	t.Entity = register(record.NewEntity("LS_USER",
		t.Domain, t.Name, t.Password, t.Enabled, t.RealName, t.Email, t.Comment))
	return t
}

// GroupTable is LS_GROUP.
type GroupTable struct {
	Entity      *record.Entity
	Domain      *record.Column[string]
	Name        *record.Column[string]
	Description *record.Column[string]
	Public      *record.Column[bool]
	Comment     *record.Column[string]
}

var Group = defineGroup()

func defineGroup() *GroupTable {
	t := &GroupTable{
		Domain:      record.String("DOMAIN", ""),
		Name:        record.String("NAME", ""),
		Description: record.String("DESCRIPTION", ""),
		Public:      record.Boolean("PUBLIC", false),
		Comment:     record.String("COMMENT", ""),
	}
	t.Entity = register(record.NewEntity("LS_GROUP",
		t.Domain, t.Name, t.Description, t.Public, t.Comment))
	return t
}

// UserGroupTable is LS_USER_GROUP, the group membership relation.
type UserGroupTable struct {
	Entity *record.Entity
	Domain *record.Column[string]
	User   *record.Column[string]
	Group  *record.Column[string]
}

var UserGroup = defineUserGroup()

func defineUserGroup() *UserGroupTable {
	t := &UserGroupTable{
		Domain: record.String("DOMAIN", ""),
		User:   record.String("USER", ""),
		Group:  record.String("GROUP", ""),
	}
	t.Entity = register(record.NewEntity("LS_USER_GROUP", t.Domain, t.User, t.Group))
	return t
}

// PermissionTable is LS_PERMISSION. A row grants to a user or a group;
// CONTENT 0 is the domain root.
type PermissionTable struct {
	Entity  *record.Entity
	Domain  *record.Column[string]
	Content *record.Column[int]
	User    *record.Column[string]
	Group   *record.Column[string]
	Read    *record.Column[bool]
	Write   *record.Column[bool]
	Publish *record.Column[bool]
	Admin   *record.Column[bool]
}

var Permission = definePermission()

func definePermission() *PermissionTable {
	t := &PermissionTable{
		Domain:  record.String("DOMAIN", ""),
		Content: record.Int("CONTENT", 0),
		User:    record.String("USER", ""),
		Group:   record.String("GROUP", ""),
		Read:    record.Boolean("READ", false),
		Write:   record.Boolean("WRITE", false),
		Publish: record.Boolean("PUBLISH", false),
		Admin:   record.Boolean("ADMIN", false),
	}
	t.Entity = register(record.NewEntity("LS_PERMISSION",
		t.Domain, t.Content, t.User, t.Group, t.Read, t.Write, t.Publish, t.Admin))
	return t
}

// LockTable is LS_LOCK: at most one edit lock per content object.
type LockTable struct {
	Entity   *record.Entity
	Domain   *record.Column[string]
	Content  *record.Column[int]
	User     *record.Column[string]
	Acquired *record.Column[time.Time]
}

var Lock = defineLock()

func defineLock() *LockTable {
	t := &LockTable{
		Domain:   record.String("DOMAIN", ""),
		Content:  record.Int("CONTENT", 0),
		User:     record.String("USER", ""),
		Acquired: record.Date("ACQUIRED", never),
	}
	t.Entity = register(record.NewEntity("LS_LOCK", t.Domain, t.Content, t.User, t.Acquired))
	return t
}
