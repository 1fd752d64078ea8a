package remote

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/Ning0612/lsparse/internal/core/name"
	"github.com/Ning0612/lsparse/internal/domain"
	"github.com/Ning0612/lsparse/internal/testutil"
)

type execHandler func(cmd string) (stdout, stderr string, status uint32)

// testServer is an in-process SSH server answering exec and sftp requests
type testServer struct {
	addr    string
	port    int
	hostKey ssh.Signer
	handler execHandler
}

func newSigner(t *testing.T) (ssh.Signer, ed25519.PrivateKey) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	return signer, priv
}

func startServer(t *testing.T, clientKey ssh.PublicKey, handler execHandler) *testServer {
	t.Helper()

	hostKey, _ := newSigner(t)
	cfg := &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), clientKey.Marshal()) {
				return nil, nil
			}
			return nil, fmt.Errorf("unknown public key")
		},
	}
	cfg.AddHostKey(hostKey)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	s := &testServer{
		addr:    ln.Addr().String(),
		port:    ln.Addr().(*net.TCPAddr).Port,
		hostKey: hostKey,
		handler: handler,
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serveConn(conn, cfg)
		}
	}()

	return s
}

func (s *testServer) serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	sc, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	defer sc.Close()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go s.serveSession(ch, requests)
	}
}

func (s *testServer) serveSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()

	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				req.Reply(false, nil)
				continue
			}
			req.Reply(true, nil)

			stdout, stderr, status := s.handler(payload.Command)
			io.WriteString(ch, stdout)
			io.WriteString(ch.Stderr(), stderr)
			ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
			return
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				req.Reply(false, nil)
				continue
			}
			req.Reply(true, nil)

			server, err := sftp.NewServer(ch)
			if err != nil {
				return
			}
			server.Serve()
			return
		default:
			req.Reply(false, nil)
		}
	}
}

type fixture struct {
	server *testServer
	host   domain.Host
}

// setup starts a server and writes a matching client key and known_hosts file
func setup(t *testing.T, handler execHandler) fixture {
	t.Helper()
	t.Setenv("SSH_AUTH_SOCK", "")

	clientSigner, clientPriv := newSigner(t)
	server := startServer(t, clientSigner.PublicKey(), handler)

	dir := t.TempDir()
	block, err := ssh.MarshalPrivateKey(clientPriv, "")
	if err != nil {
		t.Fatalf("failed to marshal client key: %v", err)
	}
	keyFile := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("failed to write client key: %v", err)
	}

	knownHosts := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(server.addr)}, server.hostKey.PublicKey())
	if err := os.WriteFile(knownHosts, []byte(line+"\n"), 0644); err != nil {
		t.Fatalf("failed to write known_hosts: %v", err)
	}

	return fixture{
		server: server,
		host: domain.Host{
			Name:       "test",
			Address:    "127.0.0.1",
			Port:       server.port,
			User:       "tester",
			KeyFile:    keyFile,
			KnownHosts: knownHosts,
		},
	}
}

func dial(t *testing.T, host domain.Host) *Source {
	t.Helper()
	src, err := Dial(context.Background(), host, name.DialectC)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func TestCommand(t *testing.T) {
	tests := []struct {
		dir     string
		dialect name.Dialect
		want    string
	}{
		{"/srv", name.DialectC, "LC_ALL=C ls -lpa --quoting-style=c -- '/srv'"},
		{"/srv/my dir", name.DialectEscape, "LC_ALL=C ls -lpa --quoting-style=escape -- '/srv/my dir'"},
		{"it's", name.DialectLiteral, `LC_ALL=C ls -lpa --quoting-style=literal -- 'it'\''s'`},
		{"$(rm -rf ~)", name.DialectC, "LC_ALL=C ls -lpa --quoting-style=c -- '$(rm -rf ~)'"},
	}

	for _, tt := range tests {
		if got := Command(tt.dir, tt.dialect); got != tt.want {
			t.Errorf("Command(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestFetch(t *testing.T) {
	listing := testutil.Listing(testutil.File("a b.txt", 12), testutil.Folder("src"))
	var gotCmd string
	f := setup(t, func(cmd string) (string, string, uint32) {
		gotCmd = cmd
		return listing, "", 0
	})

	src := dial(t, f.host)
	out, err := src.Fetch(context.Background(), "/srv/data")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out != listing {
		t.Errorf("Expected %q, got %q", listing, out)
	}
	if want := Command("/srv/data", name.DialectC); gotCmd != want {
		t.Errorf("Expected command %q, got %q", want, gotCmd)
	}
}

func TestFetch_MissingDirectory(t *testing.T) {
	f := setup(t, func(string) (string, string, uint32) {
		return "", "ls: cannot access '/nope': No such file or directory\n", 2
	})

	_, err := dial(t, f.host).Fetch(context.Background(), "/nope")
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound, got %v", err)
	}
}

func TestFetch_CommandFailed(t *testing.T) {
	f := setup(t, func(string) (string, string, uint32) {
		return "", "ls: unrecognized option '--quoting-style=c'\n", 1
	})

	_, err := dial(t, f.host).Fetch(context.Background(), "/srv")
	if !errors.Is(err, domain.ErrCommandFailed) {
		t.Errorf("Expected ErrCommandFailed, got %v", err)
	}
}

func TestFetch_Cancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	f := setup(t, func(string) (string, string, uint32) {
		<-release
		return "", "", 0
	})
	src := dial(t, f.host)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := src.Fetch(ctx, "/srv")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
}

func TestDial_HostKeyMismatch(t *testing.T) {
	f := setup(t, func(string) (string, string, uint32) { return "", "", 0 })

	other, _ := newSigner(t)
	line := knownhosts.Line([]string{knownhosts.Normalize(f.server.addr)}, other.PublicKey())
	if err := os.WriteFile(f.host.KnownHosts, []byte(line+"\n"), 0644); err != nil {
		t.Fatalf("failed to write known_hosts: %v", err)
	}

	_, err := Dial(context.Background(), f.host, name.DialectC)
	if !errors.Is(err, domain.ErrHostKeyMismatch) {
		t.Errorf("Expected ErrHostKeyMismatch, got %v", err)
	}
}

func TestDial_UnknownHost(t *testing.T) {
	f := setup(t, func(string) (string, string, uint32) { return "", "", 0 })

	if err := os.WriteFile(f.host.KnownHosts, nil, 0644); err != nil {
		t.Fatalf("failed to write known_hosts: %v", err)
	}

	_, err := Dial(context.Background(), f.host, name.DialectC)
	if !errors.Is(err, domain.ErrHostKeyMismatch) {
		t.Errorf("Expected ErrHostKeyMismatch, got %v", err)
	}
}

func TestDial_InsecureIgnoreHostKey(t *testing.T) {
	f := setup(t, func(string) (string, string, uint32) { return "ok", "", 0 })
	f.host.KnownHosts = filepath.Join(t.TempDir(), "does-not-exist")
	f.host.InsecureIgnoreHostKey = true

	out, err := dial(t, f.host).Fetch(context.Background(), "/")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out != "ok" {
		t.Errorf("Expected ok, got %q", out)
	}
}

func TestDial_InvalidHost(t *testing.T) {
	_, err := Dial(context.Background(), domain.Host{Name: "x"}, name.DialectC)
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid, got %v", err)
	}
}

func TestDial_NoAuthMethods(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	host := domain.Host{
		Name:    "x",
		Address: "127.0.0.1",
		User:    "u",
		KeyFile: filepath.Join(t.TempDir(), "missing"),
	}

	if _, err := Dial(context.Background(), host, name.DialectC); err == nil {
		t.Error("Expected error without auth methods, got nil")
	}
}

func TestRead(t *testing.T) {
	f := setup(t, func(string) (string, string, uint32) { return "", "", 1 })

	listing := testutil.Listing(testutil.File("captured.txt", 1))
	path := testutil.WriteListing(t, t.TempDir(), "listing.txt", listing)

	src := dial(t, f.host)
	out, err := src.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if out != listing {
		t.Errorf("Expected %q, got %q", listing, out)
	}

	_, err = src.Read(context.Background(), path+".missing")
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound, got %v", err)
	}
}
