package testing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/onsi/gomega"

	"github.com/sgl-project/gcs2drive/pkg/drive"
	"github.com/sgl-project/gcs2drive/pkg/storage"
)

func TestErrorMatchers(t *testing.T) {
	g := gomega.NewWithT(t)

	notFound := storage.NewError("stat", "gs://b/o", storage.ErrNotFound)
	g.Expect(notFound).To(BeNotFoundError())
	g.Expect(fmt.Errorf("transfer: %w", notFound)).To(BeNotFoundError())
	g.Expect(notFound).NotTo(BePartialContentError())

	partial := storage.NewError("download", "gs://b/o", storage.ErrPartialContent)
	g.Expect(partial).To(BePartialContentError())

	persist := fmt.Errorf("chunk 2: %w", drive.ErrIncompletePersist)
	g.Expect(persist).To(BeIncompletePersistError())
	g.Expect(errors.New("other")).NotTo(BeIncompletePersistError())
}

func TestErrorMatcher_NonError(t *testing.T) {
	_, err := BeNotFoundError().Match("not an error")
	if err == nil {
		t.Errorf("expected an error for a non-error value")
	}
}
