package storage

import (
	"fmt"
	"path"
)

// SchemeGS is the URI scheme of Google Cloud Storage
const SchemeGS = "gs"

// ObjectURI identifies one object in a bucket
type ObjectURI struct {
	BucketName string
	ObjectName string
}

// NewObjectURI builds an ObjectURI, rejecting empty names.
func NewObjectURI(bucket, object string) (ObjectURI, error) {
	uri := ObjectURI{BucketName: bucket, ObjectName: object}
	if err := uri.Validate(); err != nil {
		return ObjectURI{}, err
	}
	return uri, nil
}

// Validate checks that both bucket and object are set
func (u ObjectURI) Validate() error {
	if u.BucketName == "" {
		return fmt.Errorf("%w: missing bucket name", ErrInvalidPath)
	}
	if u.ObjectName == "" {
		return fmt.Errorf("%w: missing object name", ErrInvalidPath)
	}
	return nil
}

// BaseName returns the last path element of the object name
func (u ObjectURI) BaseName() string {
	return path.Base(u.ObjectName)
}

// String returns gs://bucket/object
func (u ObjectURI) String() string {
	return fmt.Sprintf("%s://%s/%s", SchemeGS, u.BucketName, u.ObjectName)
}
