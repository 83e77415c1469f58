package memkv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	theStorage, err := New()
	require.NoError(t, err)

	require.NoError(t, theStorage.Set(context.Background(), "users", "[]"))

	blob, found, err := theStorage.Get(context.Background(), "users")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", blob)

	require.NoError(t, theStorage.Delete(context.Background(), "users"))
	_, found, err = theStorage.Get(context.Background(), "users")
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, theStorage.Delete(context.Background(), "users"))
	assert.NoError(t, theStorage.Ping(context.Background()))
	assert.NoError(t, theStorage.Close())
}
