package domain

import "fmt"

// Host defines a remote machine listings can be captured from
type Host struct {
	// Name is the unique identifier
	Name string `mapstructure:"name"`

	// Address is the hostname or IP
	Address string `mapstructure:"address"`

	// Port defaults to 22
	Port int `mapstructure:"port"`

	// User to log in as
	User string `mapstructure:"user"`

	// KeyFile is a private key path; the SSH agent is tried first
	KeyFile string `mapstructure:"key_file"`

	// KnownHosts is the known_hosts file used to verify the host key
	KnownHosts string `mapstructure:"known_hosts"`

	// InsecureIgnoreHostKey disables host key verification
	InsecureIgnoreHostKey bool `mapstructure:"insecure_ignore_host_key"`
}

// Addr returns address:port
func (h Host) Addr() string {
	port := h.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", h.Address, port)
}

// Validate checks if the host is properly configured
func (h Host) Validate() error {
	if h.Name == "" {
		return fmt.Errorf("%w: host name cannot be empty", ErrConfigInvalid)
	}
	if h.Address == "" {
		return fmt.Errorf("%w: host %s has no address", ErrConfigInvalid, h.Name)
	}
	if h.User == "" {
		return fmt.Errorf("%w: host %s has no user", ErrConfigInvalid, h.Name)
	}
	if h.Port < 0 || h.Port > 65535 {
		return fmt.Errorf("%w: host %s has invalid port %d", ErrConfigInvalid, h.Name, h.Port)
	}
	return nil
}
