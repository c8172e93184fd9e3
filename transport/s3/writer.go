package s3

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/flowstore/streamio"
)

// writerState tracks the multipart-upload lifecycle: an upload starts
// Open, moves to PartsPending once the first part is flushed, and ends in
// Completed or Aborted. Close on an Open writer (one that never
// accumulated a full part) falls back to a single PutObject instead of
// paying for a multipart upload that would have had exactly one part.
type writerState int

const (
	stateOpen writerState = iota
	statePartsPending
	stateCompleted
	stateAborted
)

// Writer is a hand-rolled multipart-upload writer, replacing the
// teacher's s3Writer (which buffers the whole object and issues one
// manager.Upload call). Writer accumulates bytes in a ByteBuffer and
// flushes a part whenever PartSize is reached, uploading parts as the
// caller writes instead of only at Close.
type Writer struct {
	backend *Backend
	ctx     context.Context
	key     string

	buf            streamio.ByteBuffer
	uploadID       string
	nextPartNumber int32
	completedParts []types.CompletedPart
	state          writerState
	mu             sync.Mutex
}

func newWriter(b *Backend, ctx context.Context, key string) *Writer {
	w := &Writer{backend: b, ctx: ctx, key: key, nextPartNumber: 1}
	runtime.SetFinalizer(w, (*Writer).finalizeAbort)
	return w
}

// finalizeAbort is the GC-time backstop for a Writer dropped without
// Close: it aborts any in-progress multipart upload so S3 doesn't keep
// billing storage for orphaned parts. Close clears the finalizer on every
// normal exit path, so this only ever fires on a genuine drop.
func (w *Writer) finalizeAbort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateCompleted || w.state == stateAborted {
		return
	}
	_ = w.abortLocked()
}

// Read always fails: Writer is write-only.
func (w *Writer) Read([]byte) (int, error) { return 0, streamio.ErrNotSupported }

// Write buffers p, flushing a part to S3 whenever the buffer reaches the
// configured part size.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateCompleted || w.state == stateAborted {
		return 0, streamio.ErrClosed
	}

	n, _ := w.buf.Write(p)
	for int64(w.buf.Len()) >= w.backend.config.PartSize {
		if err := w.flushPartLocked(w.backend.config.PartSize); err != nil {
			return n, err
		}
	}
	return n, nil
}

// flushPartLocked uploads exactly size bytes from the front of buf as one
// part, starting the multipart upload first if this is the first flush.
// Must be called with mu held.
func (w *Writer) flushPartLocked(size int64) error {
	if w.uploadID == "" {
		if err := w.initiateLocked(); err != nil {
			return err
		}
	}
	if int(w.nextPartNumber) > w.backend.config.MaxParts {
		_ = w.abortLocked()
		return streamio.ErrLimitExceeded
	}

	chunk := w.buf.Read(int(size))
	result, err := w.backend.client.UploadPart(w.ctx, &s3.UploadPartInput{
		Bucket:     aws.String(w.backend.config.Bucket),
		Key:        aws.String(w.key),
		UploadId:   aws.String(w.uploadID),
		PartNumber: aws.Int32(w.nextPartNumber),
		Body:       bytes.NewReader(chunk),
	})
	if err != nil {
		_ = w.abortLocked()
		return w.backend.translateError(err, w.key)
	}

	w.completedParts = append(w.completedParts, types.CompletedPart{
		ETag:       result.ETag,
		PartNumber: aws.Int32(w.nextPartNumber),
	})
	w.nextPartNumber++
	w.state = statePartsPending
	return nil
}

func (w *Writer) initiateLocked() error {
	result, err := w.backend.client.CreateMultipartUpload(w.ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(w.backend.config.Bucket),
		Key:    aws.String(w.key),
	})
	if err != nil {
		return w.backend.translateError(err, w.key)
	}
	w.uploadID = aws.ToString(result.UploadId)
	return nil
}

func (w *Writer) abortLocked() error {
	if w.uploadID == "" {
		w.state = stateAborted
		return nil
	}
	_, err := w.backend.client.AbortMultipartUpload(w.ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(w.backend.config.Bucket),
		Key:      aws.String(w.key),
		UploadId: aws.String(w.uploadID),
	})
	w.state = stateAborted
	if err != nil {
		return fmt.Errorf("s3: aborting multipart upload: %w", err)
	}
	return nil
}

// Close finalizes the upload: a single PutObject if no part was ever
// flushed, otherwise a final part flush followed by
// CompleteMultipartUpload.
func (w *Writer) Close() error {
	defer runtime.SetFinalizer(w, nil)
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateCompleted || w.state == stateAborted {
		return nil
	}

	if w.uploadID == "" {
		_, err := w.backend.client.PutObject(w.ctx, &s3.PutObjectInput{
			Bucket: aws.String(w.backend.config.Bucket),
			Key:    aws.String(w.key),
			Body:   bytes.NewReader(w.buf.Read(w.buf.Len())),
		})
		w.state = stateCompleted
		if err != nil {
			return w.backend.translateError(err, w.key)
		}
		return nil
	}

	if w.buf.Len() > 0 {
		if err := w.flushPartLocked(int64(w.buf.Len())); err != nil {
			return err
		}
	}

	_, err := w.backend.client.CompleteMultipartUpload(w.ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(w.backend.config.Bucket),
		Key:      aws.String(w.key),
		UploadId: aws.String(w.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: w.completedParts,
		},
	})
	if err != nil {
		_ = w.abortLocked()
		return fmt.Errorf("s3: completing multipart upload: %w", err)
	}
	w.state = stateCompleted
	return nil
}

// Abort cancels the upload, discarding buffered bytes and any parts
// already uploaded; later writes fail and Close uploads nothing. It is a
// no-op if the upload already completed or was aborted.
func (w *Writer) Abort() error {
	defer runtime.SetFinalizer(w, nil)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateCompleted || w.state == stateAborted {
		return nil
	}
	return w.abortLocked()
}

var _ streamio.Stream = (*Writer)(nil)
