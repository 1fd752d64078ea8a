package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/Ning0612/lsparse/internal/core/name"
	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/logger"
)

// DialTimeout bounds the TCP connect and SSH handshake
const DialTimeout = 15 * time.Second

// Source runs ls on a remote host over SSH
type Source struct {
	host    domain.Host
	dialect name.Dialect
	client  *ssh.Client
	sftp    *sftp.Client
}

// Dial connects to host and authenticates with the SSH agent and key files.
// The listing command requests the quoting style of dialect.
func Dial(ctx context.Context, host domain.Host, dialect name.Dialect) (*Source, error) {
	if err := host.Validate(); err != nil {
		return nil, err
	}

	methods := authMethods(host)
	if len(methods) == 0 {
		return nil, fmt.Errorf("no SSH authentication methods available for %s (tried SSH agent and keys)", host.Name)
	}

	verify, err := hostKeyCallback(host)
	if err != nil {
		return nil, err
	}

	// The handshake may not preserve the callback error, so remember it here
	var keyErr error
	config := &ssh.ClientConfig{
		User: host.User,
		Auth: methods,
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			err := verify(hostname, remote, key)
			var ke *knownhosts.KeyError
			if errors.As(err, &ke) {
				keyErr = err
			}
			return err
		},
		Timeout: DialTimeout,
	}

	addr := host.Addr()
	dialer := net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceNotFound, addr, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		if keyErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrHostKeyMismatch, addr, keyErr)
		}
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	return &Source{
		host:    host,
		dialect: dialect,
		client:  ssh.NewClient(c, chans, reqs),
	}, nil
}

// Command returns the shell command that lists dir
func Command(dir string, dialect name.Dialect) string {
	return "LC_ALL=C ls -lpa " + dialect.ListFlags() + " -- " + shellQuote(dir)
}

// Fetch runs ls on the remote host and returns its standard output
func (s *Source) Fetch(ctx context.Context, dir string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	command := Command(dir, s.dialect)
	logger.FromContext(ctx).Debug("running listing command", "command", command)

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		logger.FromContext(ctx).Warn("listing command cancelled", "error", ctx.Err())
		_ = session.Signal(ssh.SIGTERM)
		session.Close()
		return "", ctx.Err()
	case err = <-done:
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if exitErr.ExitStatus() == 2 && strings.Contains(msg, "No such file") {
				return "", fmt.Errorf("%w: %s:%s", domain.ErrSourceNotFound, s.host.Name, dir)
			}
			return "", fmt.Errorf("%w: exit status %d: %s", domain.ErrCommandFailed, exitErr.ExitStatus(), msg)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrCommandFailed, err)
	}

	return stdout.String(), nil
}

// Read retrieves a listing file captured earlier on the remote host over SFTP
func (s *Source) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.sftp == nil {
		logger.FromContext(ctx).Debug("opening SFTP session")
		client, err := sftp.NewClient(s.client)
		if err != nil {
			return "", fmt.Errorf("SFTP session creation failed: %w", err)
		}
		s.sftp = client
	}

	f, err := s.sftp.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s:%s", domain.ErrSourceNotFound, s.host.Name, path)
		}
		return "", fmt.Errorf("failed to open remote file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read remote file: %w", err)
	}
	return string(data), nil
}

// Close closes the SFTP session and SSH connection
func (s *Source) Close() error {
	var firstErr error

	if s.sftp != nil {
		if err := s.sftp.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// shellQuote wraps s in single quotes for a POSIX shell
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// authMethods returns SSH authentication methods in priority order:
// 1. SSH agent
// 2. The host's key file, or the default keys when none is configured
func authMethods(host domain.Host) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if agentAuth := trySSHAgent(); agentAuth != nil {
		methods = append(methods, agentAuth)
	}

	keyFiles := []string{host.KeyFile}
	if host.KeyFile == "" {
		keyFiles = defaultKeyFiles()
	}

	var signers []ssh.Signer
	for _, keyPath := range keyFiles {
		keyData, err := os.ReadFile(keyPath)
		if err != nil {
			continue
		}
		// Passphrase-protected keys are left to the agent
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	return methods
}

// trySSHAgent attempts to connect to the SSH agent
func trySSHAgent() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	agentClient := agent.NewClient(conn)
	return ssh.PublicKeysCallback(agentClient.Signers)
}

func defaultKeyFiles() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	sshDir := filepath.Join(homeDir, ".ssh")
	return []string{
		filepath.Join(sshDir, "id_ed25519"),
		filepath.Join(sshDir, "id_rsa"),
		filepath.Join(sshDir, "id_ecdsa"),
	}
}

// hostKeyCallback verifies the server against known_hosts
func hostKeyCallback(host domain.Host) (ssh.HostKeyCallback, error) {
	if host.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := host.KnownHosts
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate known_hosts: %w", err)
		}
		path = filepath.Join(homeDir, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts %s: %w", path, err)
	}
	return callback, nil
}
