package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/studyladder/internal/platform/logger"
)

var ErrObjectNotFound = errors.New("object not found")

const readTimeout = 30 * time.Second

// MaterialBucket reads source material text objects.
type MaterialBucket interface {
	// ReadText returns at most maxBytes of the object; maxBytes <= 0 reads it all.
	ReadText(ctx context.Context, key string, maxBytes int64) (string, error)
}

type materialBucket struct {
	log           *logger.Logger
	storageClient *storage.Client
	httpClient    *http.Client
	cfg           MaterialStorageConfig
}

func NewMaterialBucketWithConfig(ctx context.Context, log *logger.Logger, cfg MaterialStorageConfig) (MaterialBucket, error) {
	if err := ValidateMaterialStorageConfig(cfg); err != nil {
		return nil, err
	}
	cfg.EmulatorHost = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	b := &materialBucket{
		log:        log.With("service", "MaterialBucket"),
		httpClient: &http.Client{Timeout: readTimeout},
		cfg:        cfg,
	}
	if !cfg.IsEmulatorMode() {
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		b.storageClient = client
	}
	b.log.Info("Material storage initialized", "mode", cfg.Mode, "bucket", cfg.Bucket, "emulator_host", cfg.EmulatorHost)
	return b, nil
}

func (b *materialBucket) ReadText(ctx context.Context, key string, maxBytes int64) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	rc, err := b.open(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, maxBytes)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object %q: %w", key, err)
	}
	return string(raw), nil
}

func (b *materialBucket) open(ctx context.Context, key string) (io.ReadCloser, error) {
	if b.cfg.IsEmulatorMode() {
		return b.openEmulator(ctx, key)
	}
	r, err := b.storageClient.Bucket(b.cfg.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return r, nil
}

func (b *materialBucket) openEmulator(ctx context.Context, key string) (io.ReadCloser, error) {
	u := fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		b.cfg.EmulatorHost,
		url.PathEscape(b.cfg.Bucket),
		url.PathEscape(key),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed creating emulator download request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed emulator download request: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
