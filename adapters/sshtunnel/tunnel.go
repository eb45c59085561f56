// Package sshtunnel forwards a local TCP listener to a remote address
// through an SSH connection. The PBX database only listens on localhost, so
// the documented path in is ssh to the PBX and forward to 127.0.0.1:3306.
package sshtunnel

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Config describes the tunnel endpoints.
type Config struct {
	// Host is the SSH server (the PBX itself).
	Host string
	// Port is the SSH port; 0 means 22.
	Port int
	// User and Password authenticate the SSH session.
	User     string
	Password string
	// RemoteAddr is the address to reach from the far side,
	// e.g. "127.0.0.1:3306".
	RemoteAddr string
}

// Tunnel is an open SSH port forward.
type Tunnel struct {
	client   *ssh.Client
	listener net.Listener
	logger   zerolog.Logger
	done     chan struct{}
}

// Open dials the SSH server and starts forwarding a local listener to the
// configured remote address.
func Open(cfg Config, logger zerolog.Logger) (*Tunnel, error) {
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // PBX host keys are not provisioned
		Timeout:         10 * time.Second,
	}
	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", cfg.Host, port), sshCfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", cfg.Host, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}

	t := &Tunnel{client: client, listener: listener, logger: logger, done: make(chan struct{})}
	go t.accept(cfg.RemoteAddr)

	logger.Info().Str("local", t.Addr()).Str("remote", cfg.RemoteAddr).Msg("ssh tunnel open")
	return t, nil
}

// Addr returns the local address to connect the database client to.
func (t *Tunnel) Addr() string {
	return t.listener.Addr().String()
}

// Close stops the listener and tears down the SSH connection.
func (t *Tunnel) Close() error {
	close(t.done)
	t.listener.Close()
	return t.client.Close()
}

func (t *Tunnel) accept(remoteAddr string) {
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				t.logger.Warn().Err(err).Msg("tunnel accept failed")
				return
			}
		}
		go t.forward(local, remoteAddr)
	}
}

func (t *Tunnel) forward(local net.Conn, remoteAddr string) {
	remote, err := t.client.Dial("tcp", remoteAddr)
	if err != nil {
		t.logger.Warn().Err(err).Str("remote", remoteAddr).Msg("tunnel dial failed")
		local.Close()
		return
	}
	go func() {
		defer local.Close()
		defer remote.Close()
		io.Copy(local, remote)
	}()
	go func() {
		io.Copy(remote, local)
	}()
}
