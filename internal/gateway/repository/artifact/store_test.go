package artifact

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key, err := objectKey(" u1 ", "/speech/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "u1/speech/a.wav", key)

	key, err = objectKey("u1", "speech//b.wav")
	require.NoError(t, err)
	assert.Equal(t, "u1/speech/b.wav", key)

	for _, tc := range []struct{ owner, path string }{
		{"", "a.wav"},
		{"u1/u2", "a.wav"},
		{"u1", ""},
		{"u1", "/"},
		{"u1", "../u2/a.wav"},
		{"u1", "speech/../../x"},
	} {
		_, err := objectKey(tc.owner, tc.path)
		assert.Error(t, err, "%q %q", tc.owner, tc.path)
	}
}

func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "u1", "speech/b.wav", []byte("B"), "audio/wav"))
	require.NoError(t, s.Put(ctx, "u1", "speech/a.wav", []byte("A"), "audio/wav"))
	require.NoError(t, s.Put(ctx, "u2", "speech/c.wav", []byte("C"), ""))

	got, err := s.Get(ctx, "u1", "speech/a.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), got)

	paths, err := s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"speech/a.wav", "speech/b.wav"}, paths)

	require.NoError(t, s.Delete(ctx, "u1", "speech/a.wav"))
	_, err = s.Get(ctx, "u1", "speech/a.wav")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "u1", "speech/a.wav"), ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	runStoreContract(t, s)

	_, err := s.URL(context.Background(), "u1", "speech/b.wav")
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestMemoryStore_CopiesContent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "u1", "x.wav", buf, ""))
	buf[0] = 'z'
	got, err := s.Get(ctx, "u1", "x.wav")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestNewS3Store_RequiresConfig(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.Error(t, err)
}

func TestS3Store_URLWithoutNetwork(t *testing.T) {
	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "medo"})
	require.NoError(t, err)
	u, err := s.URL(context.Background(), "u1", "speech/a.wav")
	require.NoError(t, err)
	assert.True(t, strings.Contains(u, "/medo/u1/speech/a.wav"), u)
	assert.Contains(t, u, "X-Amz-Signature")
}

func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("MEDO_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("MEDO_TEST_S3_ENDPOINT not set")
	}
	s, err := NewS3Store(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MEDO_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("MEDO_TEST_S3_SECRET_KEY"),
		Bucket:    "medo-test",
	})
	require.NoError(t, err)
	runStoreContract(t, s)
}
