package diff

import (
	"sort"

	"github.com/Ning0612/lsparse/internal/domain"
)

// DiffResult represents the comparison result between two entries
type DiffResult int

const (
	// EntriesIdentical indicates the observed columns are the same
	EntriesIdentical DiffResult = iota
	// EntryModified indicates the entry exists in both but differs
	EntryModified
	// EntryOnlyInOld indicates the entry was removed
	EntryOnlyInOld
	// EntryOnlyInNew indicates the entry was added
	EntryOnlyInNew
)

// Comparer compares two versions of the same entry
type Comparer interface {
	// Compare compares two versions of an entry with the same name and kind
	Compare(prev, next *domain.Entry) DiffResult
}

// DefaultComparer compares size, permissions, ownership and timestamp.
// Link counts are ignored since they change whenever a subfolder is added.
type DefaultComparer struct{}

// NewDefaultComparer creates a new DefaultComparer
func NewDefaultComparer() *DefaultComparer {
	return &DefaultComparer{}
}

// Compare implements the Comparer interface
func (c *DefaultComparer) Compare(prev, next *domain.Entry) DiffResult {
	if prev == nil && next == nil {
		return EntriesIdentical
	}
	if prev != nil && next == nil {
		return EntryOnlyInOld
	}
	if prev == nil && next != nil {
		return EntryOnlyInNew
	}

	if len(ChangedFields(*prev, *next)) > 0 {
		return EntryModified
	}
	return EntriesIdentical
}

// ChangedFields lists the columns that differ between two entries
func ChangedFields(prev, next domain.Entry) []string {
	var fields []string
	if prev.Size != next.Size {
		fields = append(fields, "size")
	}
	if prev.Permissions != next.Permissions {
		fields = append(fields, "permissions")
	}
	if prev.Owner != next.Owner {
		fields = append(fields, "owner")
	}
	if prev.Group != next.Group {
		fields = append(fields, "group")
	}
	if !prev.Modified.Equal(next.Modified) {
		fields = append(fields, "modified")
	}
	return fields
}

// ChangeType is the kind of difference between two listings
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// Change describes one entry that differs between two listings
type Change struct {
	Type ChangeType    `json:"type" yaml:"type"`
	Name string        `json:"name" yaml:"name"`
	Kind domain.Kind   `json:"kind" yaml:"kind"`
	Old  *domain.Entry `json:"old,omitempty" yaml:"old,omitempty"`
	New  *domain.Entry `json:"new,omitempty" yaml:"new,omitempty"`

	// Fields names the differing columns for ChangeModified
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type key struct {
	kind domain.Kind
	name string
}

// Compare matches entries by kind and name and reports every difference,
// sorted by name. Duplicate names are paired in order of appearance.
func Compare(prev, next []domain.Entry, c Comparer) []Change {
	if c == nil {
		c = NewDefaultComparer()
	}

	oldByKey := group(prev)
	newByKey := group(next)

	var changes []Change
	for k, olds := range oldByKey {
		news := newByKey[k]
		for i := range olds {
			var n *domain.Entry
			if i < len(news) {
				n = &news[i]
			}
			if ch, ok := change(k, &olds[i], n, c); ok {
				changes = append(changes, ch)
			}
		}
		for i := len(olds); i < len(news); i++ {
			if ch, ok := change(k, nil, &news[i], c); ok {
				changes = append(changes, ch)
			}
		}
	}
	for k, news := range newByKey {
		if _, seen := oldByKey[k]; seen {
			continue
		}
		for i := range news {
			if ch, ok := change(k, nil, &news[i], c); ok {
				changes = append(changes, ch)
			}
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Name != changes[j].Name {
			return changes[i].Name < changes[j].Name
		}
		return changes[i].Kind < changes[j].Kind
	})
	return changes
}

func change(k key, prev, next *domain.Entry, c Comparer) (Change, bool) {
	ch := Change{Name: k.name, Kind: k.kind, Old: prev, New: next}
	switch c.Compare(prev, next) {
	case EntryOnlyInOld:
		ch.Type = ChangeRemoved
	case EntryOnlyInNew:
		ch.Type = ChangeAdded
	case EntryModified:
		ch.Type = ChangeModified
		ch.Fields = ChangedFields(*prev, *next)
	default:
		return Change{}, false
	}
	return ch, true
}

func group(entries []domain.Entry) map[key][]domain.Entry {
	m := make(map[key][]domain.Entry, len(entries))
	for _, e := range entries {
		k := key{kind: e.Kind, name: e.Name}
		m[k] = append(m[k], e)
	}
	return m
}
