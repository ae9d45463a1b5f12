package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseProvider checks the behaviour every backend must share.
func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	_, err := p.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.Set(ctx, "gridComments", []byte(`[{"id":1}]`)))
	got, err := p.Get(ctx, "gridComments")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))

	require.NoError(t, p.Set(ctx, "gridComments", []byte(`[]`)))
	got, err = p.Get(ctx, "gridComments")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got), "set must overwrite")

	require.NoError(t, p.Del(ctx, "gridComments"))
	_, err = p.Get(ctx, "gridComments")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, p.Del(ctx, "gridComments"), "deleting a missing key is not an error")
}

func TestMemoryProvider(t *testing.T) {
	p := NewMemoryProvider()
	exerciseProvider(t, p)

	value := []byte("abc")
	require.NoError(t, p.Set(context.Background(), "k", value))
	value[0] = 'z'
	got, _ := p.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(got), "stored value must not alias the caller's slice")
}

func TestSQLiteProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "datagrid.db")
	p, err := NewSQLiteProvider(context.Background(), path)
	require.NoError(t, err)
	exerciseProvider(t, p)

	require.NoError(t, p.Set(context.Background(), "persist", []byte("v1")))
	require.NoError(t, p.Close())

	reopened, err := NewSQLiteProvider(context.Background(), path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "persist")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))
}

func TestBadgerProviderInMemory(t *testing.T) {
	p, err := NewBadgerProvider(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer p.Close()
	exerciseProvider(t, p)
}

func TestBadgerProviderPersists(t *testing.T) {
	dir := t.TempDir()
	p, err := NewBadgerProvider(BadgerConfig{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, p.Set(context.Background(), "k", []byte("durable")))
	require.NoError(t, p.Close())

	reopened, err := NewBadgerProvider(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "durable", string(got))
}

func TestBadgerRequiresPath(t *testing.T) {
	_, err := NewBadgerProvider(BadgerConfig{})
	require.Error(t, err)
}

func TestValkeyProvider(t *testing.T) {
	srv := miniredis.RunT(t)
	p, err := NewValkeyProvider(context.Background(), ValkeyConfig{Addr: srv.Addr(), Prefix: "datagrid:"})
	require.NoError(t, err)
	defer p.Close()
	exerciseProvider(t, p)

	require.NoError(t, p.Set(context.Background(), "gridComments", []byte("x")))
	stored, err := srv.Get("datagrid:gridComments")
	require.NoError(t, err)
	assert.Equal(t, "x", stored)
}

func TestValkeyProviderAuthAndDB(t *testing.T) {
	srv := miniredis.RunT(t)
	srv.RequireAuth("secret")

	_, err := NewValkeyProvider(context.Background(), ValkeyConfig{Addr: srv.Addr()})
	require.Error(t, err, "ping without credentials must fail")

	p, err := NewValkeyProvider(context.Background(), ValkeyConfig{Addr: srv.Addr(), Password: "secret", DB: 2})
	require.NoError(t, err)
	require.NoError(t, p.Set(context.Background(), "k", []byte("v")))

	srv.Select(2)
	got, err := srv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestValkeyProviderUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := NewValkeyProvider(context.Background(), ValkeyConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
}

func TestPostgresProvider(t *testing.T) {
	dsn := os.Getenv("DATAGRID_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DATAGRID_TEST_POSTGRES_DSN not set")
	}
	p, err := NewPostgresProvider(context.Background(), dsn)
	require.NoError(t, err)
	defer p.Close()
	exerciseProvider(t, p)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	p, err := Open(ctx, Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryProvider{}, p)

	p, err = Open(ctx, Config{Driver: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "kv.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLProvider{}, p)
	require.NoError(t, p.Close())

	p, err = Open(ctx, Config{Driver: DriverBadger, Badger: BadgerConfig{InMemory: true}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &BadgerProvider{}, p)
	require.NoError(t, p.Close())

	_, err = Open(ctx, Config{Driver: "etcd"}, nil)
	require.Error(t, err)

	_, err = Open(ctx, Config{Driver: DriverPostgres}, nil)
	require.Error(t, err)
}
