package kv_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkCart/internal/kv"
)

func backends(t *testing.T) map[string]kv.Store {
	t.Helper()

	b, err := kv.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	out := map[string]kv.Store{
		"memory": kv.NewMemStore(),
		"badger": b,
	}

	// set to run the contract against a throwaway postgres database
	if dsn := os.Getenv("LINKCART_TEST_DATABASE_URL"); dsn != "" {
		pg, err := kv.OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		require.NoError(t, pg.Clear(context.Background()))
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestStore_Contract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Ping(ctx))

			got, err := s.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, s.Set(ctx, map[string][]byte{"1": []byte(`"a"`), "2": []byte(`"b"`)}))
			require.NoError(t, s.Set(ctx, map[string][]byte{"2": []byte(`"B"`), "3": []byte(`"c"`)}))

			got, err = s.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string][]byte{
				"1": []byte(`"a"`),
				"2": []byte(`"B"`),
				"3": []byte(`"c"`),
			}, got)

			require.NoError(t, s.Remove(ctx, "1"))
			require.NoError(t, s.Remove(ctx, "missing"))
			got, err = s.GetAll(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.NotContains(t, got, "1")

			require.NoError(t, s.Replace(ctx, map[string][]byte{"9": []byte(`"z"`)}))
			got, err = s.GetAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string][]byte{"9": []byte(`"z"`)}, got)

			require.NoError(t, s.Clear(ctx))
			got, err = s.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestMemStore_GetAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemStore()
	require.NoError(t, s.Set(ctx, map[string][]byte{"1": []byte("x")}))

	got, err := s.GetAll(ctx)
	require.NoError(t, err)
	got["1"][0] = 'y'
	got["2"] = []byte("z")

	again, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"1": []byte("x")}, again)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := kv.Open(context.Background(), kv.Options{Backend: "etcd"})
	require.Error(t, err)
}

func TestOpen_PostgresNeedsURL(t *testing.T) {
	_, err := kv.Open(context.Background(), kv.Options{Backend: kv.BackendPostgres})
	require.Error(t, err)
}

func TestOpen_Memory(t *testing.T) {
	s, err := kv.Open(context.Background(), kv.Options{Backend: kv.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &kv.MemStore{}, s)
}
