package token_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-bank-client/token"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// storageFactories returns every Storage implementation under test
func storageFactories(t *testing.T) map[string]func(t *testing.T) token.Storage {
	t.Helper()
	return map[string]func(t *testing.T) token.Storage{
		"memory": func(t *testing.T) token.Storage {
			return token.NewMemoryStorage()
		},
		"file": func(t *testing.T) token.Storage {
			return token.NewFileStorage(filepath.Join(t.TempDir(), "tokens.json"))
		},
		"encrypted file": func(t *testing.T) token.Storage {
			return token.NewFileStorage(filepath.Join(t.TempDir(), "tokens.json"), token.WithPassphrase("correct horse"))
		},
		"redis": func(t *testing.T) token.Storage {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return token.NewRedisStorage(client, "test:")
		},
	}
}

func TestStorage_Contract(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storageFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			_, ok, err := s.Get(ctx, token.AccessTokenKey)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Set(ctx, token.AccessTokenKey, "access-1"))
			v, ok, err := s.Get(ctx, token.AccessTokenKey)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "access-1", v)

			require.NoError(t, s.Set(ctx, token.AccessTokenKey, "access-2"))
			v, _, err = s.Get(ctx, token.AccessTokenKey)
			require.NoError(t, err)
			require.Equal(t, "access-2", v)

			require.NoError(t, s.Delete(ctx, token.AccessTokenKey))
			_, ok, err = s.Get(ctx, token.AccessTokenKey)
			require.NoError(t, err)
			require.False(t, ok)

			// deleting a missing key is not an error
			require.NoError(t, s.Delete(ctx, token.RefreshTokenKey))
		})
	}
}

func TestStore_SaveAndClear(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storageFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := token.NewStore(factory(t))

			require.NoError(t, store.Save(ctx, token.Tokens{AccessToken: "a1", RefreshToken: "r1"}))
			tokens, err := store.Tokens(ctx)
			require.NoError(t, err)
			require.Equal(t, token.Tokens{AccessToken: "a1", RefreshToken: "r1"}, tokens)

			require.NoError(t, store.Save(ctx, token.Tokens{AccessToken: "a2", RefreshToken: "r2"}))
			access, err := store.AccessToken(ctx)
			require.NoError(t, err)
			require.Equal(t, "a2", access)
			refresh, err := store.RefreshToken(ctx)
			require.NoError(t, err)
			require.Equal(t, "r2", refresh)

			require.NoError(t, store.Clear(ctx))
			tokens, err = store.Tokens(ctx)
			require.NoError(t, err)
			require.Equal(t, token.Tokens{}, tokens)
		})
	}
}

func TestStore_SaveWithoutRefreshTokenDropsOldOne(t *testing.T) {
	ctx := context.Background()
	store := token.NewStore(nil)

	require.NoError(t, store.Save(ctx, token.Tokens{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, store.Save(ctx, token.Tokens{AccessToken: "a2"}))

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, refresh)
}

func TestFileStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("persists across instances with restrictive permissions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tokens.json")
		require.NoError(t, token.NewFileStorage(path).Set(ctx, token.AccessTokenKey, "abc"))

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		v, ok, err := token.NewFileStorage(path).Get(ctx, token.AccessTokenKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "abc", v)
	})

	t.Run("encrypted file hides the token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		require.NoError(t, token.NewFileStorage(path, token.WithPassphrase("secret")).Set(ctx, token.RefreshTokenKey, "very-secret-refresh"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NotContains(t, string(raw), "very-secret-refresh")

		v, ok, err := token.NewFileStorage(path, token.WithPassphrase("secret")).Get(ctx, token.RefreshTokenKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "very-secret-refresh", v)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		require.NoError(t, token.NewFileStorage(path, token.WithPassphrase("secret")).Set(ctx, token.AccessTokenKey, "a"))

		_, _, err := token.NewFileStorage(path, token.WithPassphrase("other")).Get(ctx, token.AccessTokenKey)
		require.ErrorIs(t, err, token.ErrDecrypt)
	})

	t.Run("plain file read with passphrase", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		require.NoError(t, token.NewFileStorage(path).Set(ctx, token.AccessTokenKey, "a"))

		_, _, err := token.NewFileStorage(path, token.WithPassphrase("secret")).Get(ctx, token.AccessTokenKey)
		require.ErrorIs(t, err, token.ErrNotEncrypted)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, _, err := token.NewFileStorage(path).Get(ctx, token.AccessTokenKey)
		require.Error(t, err)
	})
}

func TestRedisStorage_TTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := token.NewRedisStorage(client, "bank:", token.WithRedisTTL(time.Minute))
	require.NoError(t, s.Set(ctx, token.AccessTokenKey, "a1"))

	got, err := mr.Get("bank:" + token.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, "a1", got)

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Get(ctx, token.AccessTokenKey)
	require.NoError(t, err)
	require.False(t, ok)
}
