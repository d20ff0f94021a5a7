package platform

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultSSHPort           = 22
	defaultKeepAliveInterval = 30 * time.Second
	keepAliveTimeout         = 15 * time.Second
	sshDialTimeout           = 10 * time.Second
)

// sshRunner executes shell commands on a remote device over SSH. Nothing
// needs to be installed on the target; output is parsed locally.
type sshRunner struct {
	config  RemoteConfig
	timeout time.Duration
	logger  Logger

	mu     sync.RWMutex
	client *ssh.Client
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSSHRunner(config RemoteConfig, timeout time.Duration, logger Logger) (*sshRunner, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if config.User == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidConfig)
	}
	if config.AuthMethod == nil {
		return nil, fmt.Errorf("%w: authentication method is required", ErrInvalidConfig)
	}
	if config.Port == 0 {
		config.Port = defaultSSHPort
	}
	if config.KeepAliveInterval == 0 {
		config.KeepAliveInterval = defaultKeepAliveInterval
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &sshRunner{config: config, timeout: timeout, logger: logger}, nil
}

func (r *sshRunner) address() string {
	return net.JoinHostPort(r.config.Host, fmt.Sprint(r.config.Port))
}

// Connect dials the remote host and starts the keepalive loop.
func (r *sshRunner) Connect(ctx context.Context) error {
	sshConfig, err := buildSSHConfig(r.config)
	if err != nil {
		return fmt.Errorf("failed to build SSH config: %w", err)
	}

	client, err := ssh.Dial("tcp", r.address(), sshConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", r.address(), err)
	}

	r.mu.Lock()
	r.client = client
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.logger.Info("ssh connected", "addr", r.address(), "user", r.config.User)

	if r.config.KeepAliveInterval > 0 {
		r.wg.Add(1)
		go r.keepaliveLoop()
	}
	return nil
}

func buildSSHConfig(config RemoteConfig) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	switch auth := config.AuthMethod.(type) {
	case PasswordAuth:
		authMethods = append(authMethods, ssh.Password(auth.Password))
	case KeyAuth:
		key, err := os.ReadFile(auth.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		var signer ssh.Signer
		if auth.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(auth.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	case AgentAuth:
		socket := os.Getenv("SSH_AUTH_SOCK")
		if socket == "" {
			return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
		}
		// Defer the agent connection until the handshake asks for keys.
		authMethods = append(authMethods, ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			agentConn, err := net.Dial("unix", socket)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to SSH agent: %w", err)
			}
			defer agentConn.Close()

			signers, err := agent.NewClient(agentConn).Signers()
			if err != nil {
				return nil, fmt.Errorf("failed to get signers from SSH agent: %w", err)
			}
			return signers, nil
		}))
	default:
		return nil, fmt.Errorf("unsupported auth method type: %T", auth)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if config.KnownHostsPath != "" {
		cb, err := knownhosts.New(config.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            config.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         sshDialTimeout,
	}, nil
}

// Run executes cmd in a fresh session. Sessions cannot be reused after a
// command completes.
func (r *sshRunner) Run(ctx context.Context, cmd string) (string, error) {
	r.mu.RLock()
	client := r.client
	r.mu.RUnlock()

	if client == nil {
		return "", ErrNotConnected
	}

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), nil
	case <-timer.C:
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return "", fmt.Errorf("%w after %v: %s", ErrCommandTimeout, r.timeout, cmd)
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return "", ctx.Err()
	}
}

// keepaliveLoop sends periodic keepalive probes until Close.
func (r *sshRunner) keepaliveLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if err := r.sendKeepalive(); err != nil {
				r.logger.Warn("ssh keepalive failed", "addr", r.address(), "error", err)
			}
		}
	}
}

func (r *sshRunner) sendKeepalive() error {
	r.mu.RLock()
	client := r.client
	r.mu.RUnlock()

	if client == nil {
		return ErrNotConnected
	}

	done := make(chan error, 1)
	go func() {
		// Any reply, including a rejection, means the connection is alive.
		_, _, err := client.SendRequest("keepalive@golang.org", true, nil)
		done <- err
	}()

	select {
	case <-done:
		return nil
	case <-time.After(keepAliveTimeout):
		return fmt.Errorf("keepalive timeout")
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// Close stops the keepalive loop and closes the client. Safe to call
// multiple times.
func (r *sshRunner) Close() error {
	r.mu.Lock()
	cancel := r.cancel
	client := r.client
	r.client = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()

	if client != nil {
		return client.Close()
	}
	return nil
}
