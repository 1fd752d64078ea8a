// Package listing groups parsed entries into sorted files and folders.
package listing

import (
	"sort"

	"github.com/Ning0612/lsparse/internal/domain"
)

// Listing is a directory listing split by kind
type Listing struct {
	// Files sorted by name (byte order)
	Files []domain.Entry
	// Folders sorted by name (byte order)
	Folders []domain.Entry
}

// FromEntries splits entries by kind and sorts each group by name.
// Duplicate names are kept.
func FromEntries(entries []domain.Entry) Listing {
	var l Listing
	for _, e := range entries {
		switch e.Kind {
		case domain.KindFile:
			l.Files = append(l.Files, e)
		case domain.KindFolder:
			l.Folders = append(l.Folders, e)
		}
	}

	sort.SliceStable(l.Files, func(i, j int) bool { return l.Files[i].Name < l.Files[j].Name })
	sort.SliceStable(l.Folders, func(i, j int) bool { return l.Folders[i].Name < l.Folders[j].Name })
	return l
}

// TotalSize sums the sizes of all files
func (l Listing) TotalSize() uint64 {
	var total uint64
	for _, f := range l.Files {
		total += f.Size
	}
	return total
}

// FolderNames returns the folder names in order
func (l Listing) FolderNames() []string {
	names := make([]string, len(l.Folders))
	for i, f := range l.Folders {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of files and folders
func (l Listing) Len() int {
	return len(l.Files) + len(l.Folders)
}
