package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey("", "run-1", "/graph.json")
	require.NoError(t, err)
	assert.Equal(t, "run-1/graph.json", key)

	key, err = ObjectKey("javakg/exports", "/run-1/", "graph.json")
	require.NoError(t, err)
	assert.Equal(t, "javakg/exports/run-1/graph.json", key)

	_, err = ObjectKey("", " ", "graph.json")
	assert.Error(t, err)
	_, err = ObjectKey("", "run", "")
	assert.Error(t, err)
}

func TestNewS3StoreValidatesConfig(t *testing.T) {
	_, err := NewS3Store(S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.ErrorContains(t, err, "access key")

	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket")

	store, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b", Prefix: "/x/"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", store.region)
	assert.Equal(t, "x", store.prefix)
}
