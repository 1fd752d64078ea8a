package domain

import "os"

// Triad holds read/write/execute bits for one class of user
type Triad struct {
	Read  bool `json:"read" yaml:"read"`
	Write bool `json:"write" yaml:"write"`
	Exec  bool `json:"exec" yaml:"exec"`
}

// Permissions is the structured form of the nine permission characters
type Permissions struct {
	Owner Triad `json:"owner" yaml:"owner"`
	Group Triad `json:"group" yaml:"group"`
	Other Triad `json:"other" yaml:"other"`

	Setuid bool `json:"setuid,omitempty" yaml:"setuid,omitempty"`
	Setgid bool `json:"setgid,omitempty" yaml:"setgid,omitempty"`
	Sticky bool `json:"sticky,omitempty" yaml:"sticky,omitempty"`

	// AccessMarker is the optional trailing ACL/context marker (".", "+", "@")
	AccessMarker string `json:"access_marker,omitempty" yaml:"access_marker,omitempty"`
}

// String renders the nine permission characters the way ls prints them
func (p Permissions) String() string {
	buf := [9]byte{}
	triads := [3]Triad{p.Owner, p.Group, p.Other}
	specials := [3]bool{p.Setuid, p.Setgid, p.Sticky}
	specialChar := [3]byte{'s', 's', 't'}

	for i, t := range triads {
		buf[i*3] = flagChar(t.Read, 'r')
		buf[i*3+1] = flagChar(t.Write, 'w')
		switch {
		case specials[i] && t.Exec:
			buf[i*3+2] = specialChar[i]
		case specials[i]:
			buf[i*3+2] = specialChar[i] - 'a' + 'A'
		default:
			buf[i*3+2] = flagChar(t.Exec, 'x')
		}
	}
	return string(buf[:])
}

// Perm returns the permission and special bits as an os.FileMode
func (p Permissions) Perm() os.FileMode {
	var m os.FileMode
	triads := [3]Triad{p.Owner, p.Group, p.Other}
	for i, t := range triads {
		shift := uint(6 - 3*i)
		if t.Read {
			m |= 4 << shift
		}
		if t.Write {
			m |= 2 << shift
		}
		if t.Exec {
			m |= 1 << shift
		}
	}
	if p.Setuid {
		m |= os.ModeSetuid
	}
	if p.Setgid {
		m |= os.ModeSetgid
	}
	if p.Sticky {
		m |= os.ModeSticky
	}
	return m
}

func flagChar(set bool, c byte) byte {
	if set {
		return c
	}
	return '-'
}
