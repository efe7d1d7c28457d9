package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var ErrSFTPConfigInvalid = errors.New("invalid sftp server config")

type SFTPServerConfig struct {
	Host           string
	Port           int
	User           string
	PrivateKeyPath string
	// KnownHostsPath 为空时使用 ~/.ssh/known_hosts
	KnownHostsPath string
	Root           string
	Timeout        time.Duration
}

type remoteFileClient interface {
	Exists(remotePath string) (bool, error)
	Create(remotePath string, r io.Reader) (int64, error)
	Open(remotePath string) (io.ReadCloser, error)
	Remove(remotePath string) error
	Close() error
}

type remoteFileClientFactory interface {
	New(server SFTPServerConfig) (remoteFileClient, error)
}

// SFTPBackend 每次操作单独建立一次 ssh 连接
type SFTPBackend struct {
	server  SFTPServerConfig
	factory remoteFileClientFactory
}

func NewSFTPBackend(server SFTPServerConfig) (*SFTPBackend, error) {
	normalized, err := normalizeServerConfig(server)
	if err != nil {
		return nil, err
	}
	return &SFTPBackend{server: normalized, factory: &sshSFTPClientFactory{}}, nil
}

func normalizeServerConfig(cfg SFTPServerConfig) (SFTPServerConfig, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.PrivateKeyPath = strings.TrimSpace(cfg.PrivateKeyPath)
	cfg.KnownHostsPath = strings.TrimSpace(cfg.KnownHostsPath)
	cfg.Root = strings.TrimSpace(cfg.Root)

	if cfg.Host == "" || cfg.User == "" || cfg.PrivateKeyPath == "" {
		return SFTPServerConfig{}, fmt.Errorf("%w: host, user and private_key_path are required", ErrSFTPConfigInvalid)
	}
	if cfg.KnownHostsPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return SFTPServerConfig{}, fmt.Errorf("%w: known_hosts_path is required: %v", ErrSFTPConfigInvalid, err)
		}
		cfg.KnownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return cfg, nil
}

func (b *SFTPBackend) remotePath(objectPath string) string {
	return path.Join(b.server.Root, objectPath)
}

func (b *SFTPBackend) connect(ctx context.Context) (remoteFileClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.factory.New(b.server)
}

func (b *SFTPBackend) Put(ctx context.Context, objectPath string, r io.Reader) (int64, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	remote := b.remotePath(objectPath)
	exists, err := client.Exists(remote)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("%w: %s", ErrObjectExists, objectPath)
	}
	return client.Create(remote, r)
}

func (b *SFTPBackend) Remove(ctx context.Context, objectPaths []string) (int, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	removed := 0
	var errs []error
	for _, p := range objectPaths {
		if err := client.Remove(b.remotePath(p)); err != nil {
			if isNotExistError(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("remove %s failed: %w", p, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (b *SFTPBackend) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	client, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}

	rc, err := client.Open(b.remotePath(objectPath))
	if err != nil {
		_ = client.Close()
		if isNotExistError(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectPath)
		}
		return nil, err
	}
	return &remoteReadCloser{ReadCloser: rc, client: client}, nil
}

// remoteReadCloser 关闭文件时一并关闭连接
type remoteReadCloser struct {
	io.ReadCloser
	client remoteFileClient
}

func (r *remoteReadCloser) Close() error {
	err := r.ReadCloser.Close()
	if closeErr := r.client.Close(); err == nil {
		err = closeErr
	}
	return err
}

// hostKeyCallback 只接受 known_hosts 里登记过的主机密钥
func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts failed (%s): %w", knownHostsPath, err)
	}
	return callback, nil
}

type sshSFTPClientFactory struct{}

func (f *sshSFTPClientFactory) New(server SFTPServerConfig) (remoteFileClient, error) {
	return newSSHSFTPClient(server)
}

type sshSFTPClient struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

func newSSHSFTPClient(server SFTPServerConfig) (*sshSFTPClient, error) {
	keyBytes, err := os.ReadFile(server.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key failed: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key failed: %w", err)
	}

	hostKeys, err := hostKeyCallback(server.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User: server.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: hostKeys,
		Timeout:         server.Timeout,
	}

	address := net.JoinHostPort(server.Host, strconv.Itoa(server.Port))
	sshClient, err := ssh.Dial("tcp", address, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("dial ssh failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("create sftp client failed: %w", err)
	}

	return &sshSFTPClient{
		sshClient:  sshClient,
		sftpClient: sftpClient,
	}, nil
}

func (c *sshSFTPClient) Exists(remotePath string) (bool, error) {
	_, err := c.sftpClient.Stat(remotePath)
	if err != nil {
		if isNotExistError(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat remote file failed: %w", err)
	}
	return true, nil
}

func (c *sshSFTPClient) Create(remotePath string, r io.Reader) (int64, error) {
	if err := c.sftpClient.MkdirAll(path.Dir(remotePath)); err != nil {
		return 0, fmt.Errorf("create remote directory failed: %w", err)
	}

	dst, err := c.sftpClient.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		return 0, fmt.Errorf("create remote file failed: %w", err)
	}

	written, err := io.Copy(dst, r)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = c.sftpClient.Remove(remotePath)
		return 0, fmt.Errorf("write remote file failed: %w", err)
	}
	return written, nil
}

func (c *sshSFTPClient) Open(remotePath string) (io.ReadCloser, error) {
	f, err := c.sftpClient.Open(remotePath)
	if err != nil {
		return nil, fmt.Errorf("open remote file failed: %w", err)
	}
	return f, nil
}

func (c *sshSFTPClient) Remove(remotePath string) error {
	return c.sftpClient.Remove(remotePath)
}

func (c *sshSFTPClient) Close() error {
	var firstErr error
	if c.sftpClient != nil {
		if err := c.sftpClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.sshClient != nil {
		if err := c.sshClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func isNotExistError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || os.IsNotExist(err) {
		return true
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "not exist") || strings.Contains(message, "no such file")
}
