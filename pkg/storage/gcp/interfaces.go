package gcp

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
)

// The slice of the GCS client a transfer touches. Tests substitute fakes.
type (
	objectClient interface {
		Bucket(name string) bucketHandle
		Close() error
	}

	bucketHandle interface {
		Object(name string) objectHandle
	}

	objectHandle interface {
		Attrs(ctx context.Context) (*storage.ObjectAttrs, error)
		NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
		Delete(ctx context.Context) error
	}
)

// sdkClient adapts *storage.Client to objectClient
type sdkClient struct {
	client *storage.Client
}

func (c sdkClient) Bucket(name string) bucketHandle {
	return sdkBucket{c.client.Bucket(name)}
}

func (c sdkClient) Close() error {
	return c.client.Close()
}

type sdkBucket struct {
	bucket *storage.BucketHandle
}

func (b sdkBucket) Object(name string) objectHandle {
	return sdkObject{b.bucket.Object(name)}
}

type sdkObject struct {
	object *storage.ObjectHandle
}

func (o sdkObject) Attrs(ctx context.Context) (*storage.ObjectAttrs, error) {
	return o.object.Attrs(ctx)
}

func (o sdkObject) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	r, err := o.object.NewRangeReader(ctx, offset, length)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (o sdkObject) Delete(ctx context.Context) error {
	return o.object.Delete(ctx)
}

// isNotFoundErr reports a missing object or bucket
func isNotFoundErr(err error) bool {
	return errors.Is(err, storage.ErrObjectNotExist) ||
		errors.Is(err, storage.ErrBucketNotExist)
}
