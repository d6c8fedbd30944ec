package model

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxArtifactBytes bounds how much of an artifact is read
const MaxArtifactBytes = 64 << 20

// Source fetches artifact bytes by URI
type Source interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FileSource reads artifacts from the local filesystem. Relative paths are
// resolved against BaseDir.
type FileSource struct {
	BaseDir string
}

// Fetch reads the file named by uri (a path or file:// URI)
func (s *FileSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")
	if !filepath.IsAbs(path) && s.BaseDir != "" {
		path = filepath.Join(s.BaseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

// ObjectStoreConfig configures an S3-compatible artifact store
type ObjectStoreConfig struct {
	Endpoint        string `json:"endpoint" envconfig:"ENDPOINT"`
	AccessKeyID     string `json:"access_key_id" envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" envconfig:"SECRET_ACCESS_KEY"`
	UseSSL          bool   `json:"use_ssl" envconfig:"USE_SSL"`
	Region          string `json:"region" envconfig:"REGION"`
}

// ObjectStoreSource reads s3://bucket/key artifacts from MinIO or S3
type ObjectStoreSource struct {
	client *minio.Client
}

// NewObjectStoreSource creates a client. No request is made until Fetch.
func NewObjectStoreSource(cfg ObjectStoreConfig) (*ObjectStoreSource, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &ObjectStoreSource{client: client}, nil
}

// Fetch downloads the object named by an s3:// URI
func (s *ObjectStoreSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseObjectURI(uri)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", uri, err)
	}
	defer obj.Close()

	data, err := readLimited(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return data, nil
}

// ParseObjectURI splits s3://bucket/key
func ParseObjectURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URI needs a bucket and a key: %q", uri)
	}
	return bucket, key, nil
}

// Router dispatches s3:// URIs to the object store and everything else to
// the filesystem.
type Router struct {
	Files   *FileSource
	Objects Source
}

// Fetch implements Source
func (r *Router) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "s3://") {
		if r.Objects == nil {
			return nil, fmt.Errorf("no object store configured for %s", uri)
		}
		return r.Objects.Fetch(ctx, uri)
	}
	files := r.Files
	if files == nil {
		files = &FileSource{}
	}
	return files.Fetch(ctx, uri)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxArtifactBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxArtifactBytes {
		return nil, fmt.Errorf("artifact exceeds %d bytes", MaxArtifactBytes)
	}
	return data, nil
}
