// internal/domain/models/collection.go
package models

// Ordering describes how a collection is ordered when it is read.
type Ordering int

const (
	// OrderNone keeps storage (insertion) order.
	OrderNone Ordering = iota
	// OrderReverse treats storage order as oldest-first and returns newest first.
	OrderReverse
	// OrderDateDesc sorts by DateField, newest first. Undated records sort as
	// if dated at the Unix epoch.
	OrderDateDesc
	// OrderDateDescUndatedLast sorts by DateField, newest first, with
	// undated records after every dated one.
	OrderDateDescUndatedLast
)

// UpdatePolicy controls what a single-record update does when the
// identifier is not present in the collection.
type UpdatePolicy string

const (
	// UpdateUpsert replaces a matching record or appends a new one.
	UpdateUpsert UpdatePolicy = "upsert"
	// UpdateReplace replaces a matching record and rejects unknown ids.
	UpdateReplace UpdatePolicy = "replace"
	// UpdateMerge shallow-merges fields into a matching record and rejects
	// unknown ids.
	UpdateMerge UpdatePolicy = "merge"
)

// Collection describes one named group of records: where it lives in the
// store, where its seed documents live on disk, and the rules its
// mutations follow.
type Collection struct {
	Name      string   // store key (before prefix) and URL segment
	Dir       string   // directory of seed documents under the content root
	IDField   string   // "slug" or "id"
	MirrorID  bool     // keep "id" equal to "slug"
	Order     Ordering // read ordering
	DateField string   // used by the date orderings
	Update    UpdatePolicy
	Required  []string // fields that single-record creates must carry

	// SlugFromTitle derives a missing slug from the title.
	SlugFromTitle bool
}

// ViewCounterPrefix is the key namespace of per-article view counters.
const ViewCounterPrefix = "research:views:"

var collections = []Collection{
	{Name: "programs", Dir: "programs", IDField: "slug", MirrorID: true, Order: OrderNone, Update: UpdateUpsert},
	{Name: "research", Dir: "research", IDField: "slug", Order: OrderReverse, Update: UpdateUpsert},
	{Name: "testimonials", Dir: "testimonials", IDField: "id", Order: OrderReverse, Update: UpdateUpsert},
	{Name: "gallery", Dir: "gallery", IDField: "id", Order: OrderNone, Update: UpdateUpsert},
	{
		Name:          "careers",
		Dir:           "jobs",
		IDField:       "slug",
		Order:         OrderDateDescUndatedLast,
		DateField:     "closingDate",
		Update:        UpdateMerge,
		Required:      []string{"title"},
		SlugFromTitle: true,
	},
	{Name: "announcements", Dir: "announcements", IDField: "slug", MirrorID: true, Order: OrderDateDesc, DateField: "date", Update: UpdateReplace},
	{Name: "achievements", Dir: "achievements", IDField: "slug", MirrorID: true, Order: OrderDateDesc, DateField: "date", Update: UpdateReplace},
}

// Collections returns every known collection in a stable order.
func Collections() []Collection {
	out := make([]Collection, len(collections))
	copy(out, collections)
	return out
}

// CollectionNames returns the names of every known collection.
func CollectionNames() []string {
	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	return names
}

// LookupCollection finds a collection by name.
func LookupCollection(name string) (Collection, bool) {
	for _, c := range collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// IDOf returns the record's identifier for this collection.
func (c Collection) IDOf(r Record) string {
	return r.String(c.IDField)
}

// StoreKey returns the store key of the collection under the given prefix.
func (c Collection) StoreKey(prefix string) string {
	return prefix + c.Name
}

// ViewCounterKey returns the store key of an article's view counter.
func ViewCounterKey(prefix, slug string) string {
	return prefix + ViewCounterPrefix + slug
}
