package storage

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type fakeRemoteFileClientFactory struct {
	client      *fakeRemoteFileClient
	serverCalls []SFTPServerConfig
	newErr      error
}

func (f *fakeRemoteFileClientFactory) New(server SFTPServerConfig) (remoteFileClient, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	f.serverCalls = append(f.serverCalls, server)
	return f.client, nil
}

type fakeRemoteFileClient struct {
	remoteFiles map[string][]byte
	createErr   error
	removeErr   error
	closeCalls  int
}

func (f *fakeRemoteFileClient) Exists(remotePath string) (bool, error) {
	_, ok := f.remoteFiles[remotePath]
	return ok, nil
}

func (f *fakeRemoteFileClient) Create(remotePath string, r io.Reader) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if f.remoteFiles == nil {
		f.remoteFiles = make(map[string][]byte)
	}
	f.remoteFiles[remotePath] = content
	return int64(len(content)), nil
}

func (f *fakeRemoteFileClient) Open(remotePath string) (io.ReadCloser, error) {
	content, ok := f.remoteFiles[remotePath]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeRemoteFileClient) Remove(remotePath string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.remoteFiles[remotePath]; !ok {
		return errors.New("sftp: \"no such file\" (SSH_FX_NO_SUCH_FILE)")
	}
	delete(f.remoteFiles, remotePath)
	return nil
}

func (f *fakeRemoteFileClient) Close() error {
	f.closeCalls++
	return nil
}

func newFakeSFTPBackend(t *testing.T) (*SFTPBackend, *fakeRemoteFileClient, *fakeRemoteFileClientFactory) {
	t.Helper()

	backend, err := NewSFTPBackend(SFTPServerConfig{
		Host:           "10.0.0.5",
		User:           "vault",
		PrivateKeyPath: "/keys/id_ed25519",
		KnownHostsPath: "/keys/known_hosts",
		Root:           "/srv/blobs/camera-validation-images",
	})
	require.NoError(t, err)

	client := &fakeRemoteFileClient{}
	factory := &fakeRemoteFileClientFactory{client: client}
	backend.factory = factory
	return backend, client, factory
}

func TestSFTPBackendPut(t *testing.T) {
	backend, client, factory := newFakeSFTPBackend(t)
	ctx := context.Background()

	written, err := backend.Put(ctx, "cam/run/image_1.png", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), written)
	assert.Equal(t, []byte("abc"), client.remoteFiles["/srv/blobs/camera-validation-images/cam/run/image_1.png"])
	require.Len(t, factory.serverCalls, 1)
	assert.Equal(t, 22, factory.serverCalls[0].Port)
	assert.Equal(t, 1, client.closeCalls)

	_, err = backend.Put(ctx, "cam/run/image_1.png", strings.NewReader("abc"))
	assert.ErrorIs(t, err, ErrObjectExists)
}

func TestSFTPBackendOpenAndRemove(t *testing.T) {
	backend, client, _ := newFakeSFTPBackend(t)
	ctx := context.Background()
	client.remoteFiles = map[string][]byte{
		"/srv/blobs/camera-validation-images/a.png": []byte("A"),
	}

	rc, err := backend.Open(ctx, "a.png")
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "A", string(content))
	assert.Equal(t, 1, client.closeCalls)

	_, err = backend.Open(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	removed, err := backend.Remove(ctx, []string{"a.png", "missing.png"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSFTPBackendErrors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		_, err := NewSFTPBackend(SFTPServerConfig{Host: "h"})
		assert.ErrorIs(t, err, ErrSFTPConfigInvalid)
	})

	t.Run("dial failure", func(t *testing.T) {
		backend, _, factory := newFakeSFTPBackend(t)
		factory.newErr = errors.New("dial ssh failed")
		_, err := backend.Put(context.Background(), "a.png", strings.NewReader("x"))
		assert.EqualError(t, err, "dial ssh failed")
	})

	t.Run("remove failure is reported", func(t *testing.T) {
		backend, client, _ := newFakeSFTPBackend(t)
		client.removeErr = errors.New("permission denied")
		removed, err := backend.Remove(context.Background(), []string{"a.png"})
		assert.Equal(t, 0, removed)
		assert.ErrorContains(t, err, "permission denied")
	})
}

func newHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func TestSFTPHostKeyVerification(t *testing.T) {
	trusted := newHostKey(t)
	knownHostsPath := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{"[sftp.example]:2222"}, trusted)
	require.NoError(t, os.WriteFile(knownHostsPath, []byte(line+"\n"), 0o600))

	callback, err := hostKeyCallback(knownHostsPath)
	require.NoError(t, err)

	remote := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 2222}

	t.Run("registered key", func(t *testing.T) {
		assert.NoError(t, callback("sftp.example:2222", remote, trusted))
	})

	t.Run("mismatched key", func(t *testing.T) {
		err := callback("sftp.example:2222", remote, newHostKey(t))
		require.Error(t, err)
		var keyErr *knownhosts.KeyError
		require.ErrorAs(t, err, &keyErr)
		assert.NotEmpty(t, keyErr.Want)
	})

	t.Run("unknown host", func(t *testing.T) {
		err := callback("other.example:22", &net.TCPAddr{IP: net.ParseIP("127.0.0.2"), Port: 22}, trusted)
		var keyErr *knownhosts.KeyError
		require.ErrorAs(t, err, &keyErr)
		assert.Empty(t, keyErr.Want)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := hostKeyCallback(filepath.Join(t.TempDir(), "absent"))
		assert.Error(t, err)
	})

	t.Run("default path", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		cfg, err := normalizeServerConfig(SFTPServerConfig{Host: "h", User: "u", PrivateKeyPath: "/k"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".ssh", "known_hosts"), cfg.KnownHostsPath)
	})
}
