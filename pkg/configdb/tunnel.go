package configdb

import (
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

// DeviceRedisAddr is where Redis listens inside a SONiC device.
const DeviceRedisAddr = "127.0.0.1:6379"

// TunnelConfig describes the SSH hop to a device's Redis.
type TunnelConfig struct {
	Host     string
	Port     int // default 22
	User     string
	Password string
	Remote   string // default DeviceRedisAddr
}

// SSHTunnel forwards a local TCP port to Redis on a device through SSH.
// Device Redis listens on loopback only and has no authentication.
type SSHTunnel struct {
	localAddr string
	remote    string
	sshClient *ssh.Client
	listener  net.Listener
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewSSHTunnel dials SSH and opens a local listener on a random port.
func NewSSHTunnel(cfg TunnelConfig) (*SSHTunnel, error) {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Remote == "" {
		cfg.Remote = DeviceRedisAddr
	}

	config := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
		},
		// Lab devices regenerate host keys on every rebuild.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	target := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	sshClient, err := ssh.Dial("tcp", target, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", target, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}

	t := &SSHTunnel{
		localAddr: listener.Addr().String(),
		remote:    cfg.Remote,
		sshClient: sshClient,
		listener:  listener,
		done:      make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// LocalAddr returns the local address (e.g. "127.0.0.1:54321") forwarding
// to the remote end.
func (t *SSHTunnel) LocalAddr() string {
	return t.localAddr
}

// Close stops the listener, closes the SSH connection, and waits for
// all forwarding goroutines to finish.
func (t *SSHTunnel) Close() error {
	close(t.done)
	t.listener.Close()
	err := t.sshClient.Close()
	t.wg.Wait()
	return err
}

func (t *SSHTunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *SSHTunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.sshClient.Dial("tcp", t.remote)
	if err != nil {
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	select {
	case <-done:
	case <-t.done:
	}
}
