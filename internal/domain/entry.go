package domain

// Kind represents the type of a listing entry
type Kind int

const (
	KindFile Kind = iota
	KindFolder
	// KindSymlink and KindDevice are recognized only so they can be skipped
	KindSymlink
	KindDevice
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	case KindSymlink:
		return "symlink"
	case KindDevice:
		return "device"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Emitted reports whether entries of this kind are surfaced to callers
func (k Kind) Emitted() bool {
	return k == KindFile || k == KindFolder
}

// Entry is the parsed result of one listing line
type Entry struct {
	// Kind is KindFile or KindFolder, never a skipped kind
	Kind Kind `json:"kind" yaml:"kind"`

	// Name is the literal name with the listing's own escaping undone
	Name string `json:"name" yaml:"name"`

	// Dir is the parent directory supplied by the caller, if any
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	Permissions Permissions `json:"permissions" yaml:"permissions"`

	// Links is the hard link count
	Links uint64 `json:"links" yaml:"links"`

	// Owner and Group are passed through verbatim
	Owner string `json:"owner" yaml:"owner"`
	Group string `json:"group" yaml:"group"`

	// Size in bytes as printed
	Size uint64 `json:"size" yaml:"size"`

	Modified Timestamp `json:"modified" yaml:"modified"`
}

// IsDir returns true if this is a folder
func (e Entry) IsDir() bool {
	return e.Kind == KindFolder
}

// IsFile returns true if this is a regular file
func (e Entry) IsFile() bool {
	return e.Kind == KindFile
}

// Path joins the caller-supplied directory with the entry name.
// Without a directory the name is returned unchanged.
func (e Entry) Path() string {
	if e.Dir == "" {
		return e.Name
	}
	// Joined without cleaning so names such as ".." survive
	if e.Dir[len(e.Dir)-1] == '/' {
		return e.Dir + e.Name
	}
	return e.Dir + "/" + e.Name
}
