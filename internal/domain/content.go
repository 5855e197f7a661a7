package domain

import (
	"strconv"
	"time"

	"github.com/cederberg/liquidsite-sub003/internal/data/contentquery"
	"github.com/cederberg/liquidsite-sub003/internal/data/record"
)

// Content categories.
const (
	CategorySite       = 1
	CategoryTranslator = 2
	CategoryFolder     = 3
	CategoryPage       = 4
	CategoryFile       = 5
	CategoryTemplate   = 6
	CategorySection    = 11
	CategoryDocument   = 12
	CategoryForum      = 13
	CategoryTopic      = 14
	CategoryPost       = 15
)

var categoryNames = map[int]string{
	CategorySite:       "site",
	CategoryTranslator: "translator",
	CategoryFolder:     "folder",
	CategoryPage:       "page",
	CategoryFile:       "file",
	CategoryTemplate:   "template",
	CategorySection:    "section",
	CategoryDocument:   "document",
	CategoryForum:      "forum",
	CategoryTopic:      "topic",
	CategoryPost:       "post",
}

// CategoryName names a content category, or returns its number for an
// unknown one.
func CategoryName(category int) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return strconv.Itoa(category)
}

// Status flags, see contentquery.
const (
	StatusLatest    = contentquery.StatusLatest
	StatusPublished = contentquery.StatusPublished
)

// ContentTable is LS_CONTENT. Every revision of an object is its own row
// sharing ID; revision 0 is the unpublished working copy.
type ContentTable struct {
	Entity   *record.Entity
	Domain   *record.Column[string]
	ID       *record.Column[int]
	Revision *record.Column[int]
	Category *record.Column[int]
	Name     *record.Column[string]
	Parent   *record.Column[int]
	Online   *record.Column[time.Time]
	Offline  *record.Column[time.Time]
	Modified *record.Column[time.Time]
	Author   *record.Column[string]
	Comment  *record.Column[string]
	Status   *record.Column[int]
}

var Content = defineContent()

func defineContent() *ContentTable {
	t := &ContentTable{
		Domain:   record.String("DOMAIN", ""),
		ID:       record.Int("ID", 0),
		Revision: record.Int("REVISION", 0),
		Category: record.Int("CATEGORY", 0),
		Name:     record.String("NAME", ""),
		Parent:   record.Int("PARENT", 0),
		Online:   record.Date("ONLINE", never),
		Offline:  record.Date("OFFLINE", never),
		Modified: record.Date("MODIFIED", never),
		Author:   record.String("AUTHOR", ""),
		Comment:  record.String("COMMENT", ""),
		Status:   record.Int("STATUS", 0),
	}
	t.Entity = register(record.NewEntity("LS_CONTENT",
		t.Domain, t.ID, t.Revision, t.Category, t.Name, t.Parent,
		t.Online, t.Offline, t.Modified, t.Author, t.Comment, t.Status))
	return t
}

// IsLatest reports the latest-revision flag of a content record.
func IsLatest(r *record.Record) bool {
	return record.Get(r, Content.Status)&StatusLatest != 0
}

// IsPublished reports the published-revision flag of a content record.
func IsPublished(r *record.Record) bool {
	return record.Get(r, Content.Status)&StatusPublished != 0
}

// AttributeTable is LS_ATTRIBUTE: named values attached to one content
// revision.
type AttributeTable struct {
	Entity   *record.Entity
	Domain   *record.Column[string]
	Content  *record.Column[int]
	Revision *record.Column[int]
	Name     *record.Column[string]
	Data     *record.Column[string]
	Search   *record.Column[bool]
}

var Attribute = defineAttribute()

func defineAttribute() *AttributeTable {
	t := &AttributeTable{
		Domain:   record.String("DOMAIN", ""),
		Content:  record.Int("CONTENT", 0),
		Revision: record.Int("REVISION", 0),
		Name:     record.String("NAME", ""),
		Data:     record.String("DATA", ""),
		Search:   record.Boolean("SEARCH", false),
	}
	t.Entity = register(record.NewEntity("LS_ATTRIBUTE",
		t.Domain, t.Content, t.Revision, t.Name, t.Data, t.Search))
	return t
}
