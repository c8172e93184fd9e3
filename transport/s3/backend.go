package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/flowstore/streamio"
)

// Backend implements streamio.ExtendedBackend against S3 and
// S3-compatible object stores, using the low-level s3.Client directly
// (rather than feature/s3/manager) so the reader and writer can implement
// their own seek and multipart state machines.
type Backend struct {
	client *s3.Client
	config Config
	closed bool
	mu     sync.RWMutex
}

// New creates a Backend from cfg.
func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PartSize == 0 {
		cfg.PartSize = DefaultConfig().PartSize
	}
	if cfg.MaxParts == 0 {
		cfg.MaxParts = DefaultConfig().MaxParts
	}

	var optFns []func(*config.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
		optFns = append(optFns, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), optFns...)
	if err != nil {
		return nil, fmt.Errorf("s3: loading AWS config: %w", err)
	}

	var s3OptFns []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3OptFns = append(s3OptFns, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3OptFns = append(s3OptFns, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Backend{client: s3.NewFromConfig(awsCfg, s3OptFns...), config: cfg}, nil
}

func (b *Backend) Name() string { return "s3" }

// NewReader opens a hand-rolled seekable reader at offset.
func (b *Backend) NewReader(ctx context.Context, p string, offset int64) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	r := newReader(b, ctx, b.fullKey(p))
	if offset > 0 {
		if _, err := r.Seek(offset, 0); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewSeekableReader opens a hand-rolled seekable reader at the start.
func (b *Backend) NewSeekableReader(ctx context.Context, p string) (streamio.SeekableStream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	return newReader(b, ctx, b.fullKey(p)), nil
}

// NewWriter opens a hand-rolled multipart-upload writer. append is not
// supported: S3 objects are immutable once completed.
func (b *Backend) NewWriter(ctx context.Context, p string, append bool) (streamio.Stream, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	if append {
		return nil, streamio.ErrNotSupported
	}
	return newWriter(b, ctx, b.fullKey(p)), nil
}

// Exists checks if a key exists via HeadObject.
func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	if err := b.checkClosed(); err != nil {
		return false, err
	}
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.fullKey(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, b.translateError(err, p)
	}
	return true, nil
}

// Delete removes a key. Idempotent.
func (b *Backend) Delete(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.fullKey(p)),
	})
	if err != nil && !isNotFound(err) {
		return b.translateError(err, p)
	}
	return nil
}

// List lists keys under prefix, paginating through ListObjectsV2.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	fullPrefix := b.fullKey(prefix)

	var paths []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.config.Bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			relPath := strings.TrimPrefix(*obj.Key, b.config.Prefix)
			relPath = strings.TrimPrefix(relPath, "/")
			if relPath != "" {
				paths = append(paths, relPath)
			}
		}
	}
	return paths, nil
}

// Close marks the backend closed; the underlying HTTP client has no
// explicit teardown.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Stat returns metadata about an object.
func (b *Backend) Stat(ctx context.Context, p string) (streamio.ObjectInfo, error) {
	if err := b.checkClosed(); err != nil {
		return nil, err
	}
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(b.fullKey(p)),
	})
	if err != nil {
		return nil, b.translateError(err, p)
	}

	var size int64
	if result.ContentLength != nil {
		size = *result.ContentLength
	}
	var modTime time.Time
	if result.LastModified != nil {
		modTime = *result.LastModified
	}
	var contentType string
	if result.ContentType != nil {
		contentType = *result.ContentType
	}

	hashes := map[streamio.HashType]string{}
	if result.ETag != nil {
		etag := strings.Trim(*result.ETag, "\"")
		if !strings.Contains(etag, "-") {
			hashes[streamio.HashMD5] = etag
		}
	}

	return &streamio.BasicObjectInfo{
		ObjectPath:        p,
		ObjectSize:        size,
		ObjectModTime:     modTime,
		ObjectContentType: contentType,
		ObjectHashes:      hashes,
	}, nil
}

// Mkdir creates a zero-byte directory marker object (S3 has no real
// directories).
func (b *Backend) Mkdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	key := b.fullKey(p)
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return fmt.Errorf("s3: creating directory marker: %w", err)
	}
	return nil
}

// Rmdir removes a directory marker if the prefix is otherwise empty.
func (b *Backend) Rmdir(ctx context.Context, p string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	key := b.fullKey(p)
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	result, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.config.Bucket),
		Prefix:  aws.String(key),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return fmt.Errorf("s3: checking directory: %w", err)
	}
	count := 0
	for _, obj := range result.Contents {
		if obj.Key != nil && *obj.Key != key {
			count++
		}
	}
	if count > 0 {
		return fmt.Errorf("s3: directory not empty: %s", p)
	}

	_, err = b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return b.translateError(err, p)
	}
	return nil
}

// Copy uses S3's server-side CopyObject.
func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	srcKey, dstKey := b.fullKey(src), b.fullKey(dst)
	copySource := fmt.Sprintf("%s/%s", b.config.Bucket, srcKey)

	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.config.Bucket),
		CopySource: aws.String(copySource),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return b.translateError(err, src)
	}
	return nil
}

// Move copies then deletes; S3 has no native rename.
func (b *Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.checkClosed(); err != nil {
		return err
	}
	if err := b.Copy(ctx, src, dst); err != nil {
		return err
	}
	return b.Delete(ctx, src)
}

// Features reports S3 capabilities.
func (b *Backend) Features() streamio.Features {
	return streamio.Features{
		Copy:                 true,
		Move:                 true,
		Mkdir:                true,
		Rmdir:                true,
		Stat:                 true,
		Hashes:               []streamio.HashType{streamio.HashMD5},
		CanStream:            true,
		ServerSideEncryption: true,
		Versioning:           true,
		RangeRead:            true,
		ListPrefix:           true,
	}
}

func (b *Backend) fullKey(p string) string {
	if b.config.Prefix == "" {
		return p
	}
	return path.Join(b.config.Prefix, p)
}

func (b *Backend) checkClosed() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return streamio.ErrClosed
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NotFound
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey"
	}
	return false
}

func (b *Backend) translateError(err error, p string) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return streamio.ErrNotFound
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("s3: bucket not found: %s", b.config.Bucket)
	}
	var nsu *types.NoSuchUpload
	if errors.As(err, &nsu) {
		return fmt.Errorf("s3: upload not found: %s", p)
	}
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return streamio.ErrPermissionDenied
		}
	}
	return fmt.Errorf("s3: %w", err)
}

var (
	_ streamio.Backend         = (*Backend)(nil)
	_ streamio.SeekableBackend = (*Backend)(nil)
	_ streamio.ExtendedBackend = (*Backend)(nil)
)
