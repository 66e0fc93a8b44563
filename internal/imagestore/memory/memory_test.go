package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/perfumery/internal/imagestore"
)

func TestMemoryImageStoreRoundTrip(t *testing.T) {
	s := NewMemoryImageStore()
	ctx := context.Background()

	key, err := s.Save(ctx, "perfume_p1", "image/webp", bytes.NewReader([]byte("webp")))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	r, mimeType, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "webp", string(data))
	assert.Equal(t, "image/webp", mimeType)

	require.NoError(t, s.Delete(ctx, key))
	assert.Zero(t, s.Len())

	_, _, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, imagestore.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, key), imagestore.ErrNotFound)
}
