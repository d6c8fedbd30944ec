package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectURI(t *testing.T) {
	bucket, key, err := ParseObjectURI("s3://models/pricing/discount.json")
	require.NoError(t, err)
	assert.Equal(t, "models", bucket)
	assert.Equal(t, "pricing/discount.json", key)

	for _, bad := range []string{"models/discount.json", "s3://models", "s3:///key", "s3://bucket/"} {
		_, _, err := ParseObjectURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestFileSourceResolvesRelativePaths(t *testing.T) {
	src := &FileSource{BaseDir: "testdata"}

	data, err := src.Fetch(context.Background(), "tax_rate.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tax_rate"`)

	abs, err := filepath.Abs("testdata/tax_rate.json")
	require.NoError(t, err)
	data2, err := src.Fetch(context.Background(), "file://"+abs)
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestFileSourceRejectsOversizedArtifacts(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "big.json"))
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxArtifactBytes+1))
	require.NoError(t, f.Close())

	_, err = (&FileSource{BaseDir: dir}).Fetch(context.Background(), "big.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestRouterWithoutObjectStore(t *testing.T) {
	r := &Router{Files: &FileSource{BaseDir: "testdata"}}

	_, err := r.Fetch(context.Background(), "s3://models/discount.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no object store")

	data, err := r.Fetch(context.Background(), "discount.json")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRouterSendsObjectURIsToObjectStore(t *testing.T) {
	objects := memSource{"s3://models/doc_level.json": []byte("{}")}
	r := &Router{Objects: objects}

	data, err := r.Fetch(context.Background(), "s3://models/doc_level.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestNewObjectStoreSourceRequiresEndpoint(t *testing.T) {
	_, err := NewObjectStoreSource(ObjectStoreConfig{})
	assert.Error(t, err)

	src, err := NewObjectStoreSource(ObjectStoreConfig{Endpoint: "localhost:9000", AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.NotNil(t, src)
}
