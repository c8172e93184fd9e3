package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/flowstore/streamio/transport/internal/rangedreader"
)

// s3Opener adapts the S3 client's ranged GetObject/HeadObject calls to the
// rangedreader.Opener contract. The teacher's S3 backend just returns the
// body of a single GetObject with no seek support at all; this is the
// piece that gives S3 objects a real seekable Reader.
type s3Opener struct {
	backend *Backend
	key     string
}

func (o *s3Opener) Open(ctx context.Context, offset int64) (io.ReadCloser, int64, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(o.backend.config.Bucket),
		Key:    aws.String(o.key),
	}
	if offset > 0 {
		input.Range = aws.String(fmt.Sprintf("bytes=%d-", offset))
	}
	result, err := o.backend.client.GetObject(ctx, input)
	if err != nil {
		return nil, -1, o.backend.translateError(err, o.key)
	}
	size := int64(-1)
	if result.ContentLength != nil {
		size = *result.ContentLength
	}
	return result.Body, size, nil
}

func (o *s3Opener) Size(ctx context.Context) (int64, error) {
	result, err := o.backend.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.backend.config.Bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return 0, o.backend.translateError(err, o.key)
	}
	if result.ContentLength == nil {
		return 0, nil
	}
	return *result.ContentLength, nil
}

func newReader(b *Backend, ctx context.Context, key string) *rangedreader.Reader {
	return rangedreader.New(ctx, &s3Opener{backend: b, key: key})
}
