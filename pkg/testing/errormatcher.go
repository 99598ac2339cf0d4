// Package testing holds gomega matchers for the error classes of the transfer pipeline.
package testing

import (
	"errors"
	"fmt"

	"github.com/onsi/gomega/format"
	"github.com/onsi/gomega/types"

	"github.com/sgl-project/gcs2drive/pkg/drive"
	"github.com/sgl-project/gcs2drive/pkg/storage"
)

func BeNotFoundError() types.GomegaMatcher {
	return BeTransferError(NotFoundError)
}

func BePartialContentError() types.GomegaMatcher {
	return BeTransferError(PartialContentError)
}

func BeIncompletePersistError() types.GomegaMatcher {
	return BeTransferError(IncompletePersistError)
}

type errorMatcher int

const (
	NotFoundError errorMatcher = iota
	PartialContentError
	IncompletePersistError
)

func (em errorMatcher) String() string {
	return []string{"NotFoundError", "PartialContentError", "IncompletePersistError"}[em]
}

type errorClass func(error) bool

func (em errorMatcher) is(err error) bool {
	return []errorClass{
		storage.IsNotFound,
		storage.IsPartialContent,
		func(err error) bool { return errors.Is(err, drive.ErrIncompletePersist) },
	}[em](err)
}

type isErrorMatch struct {
	name errorMatcher
}

func BeTransferError(name errorMatcher) types.GomegaMatcher {
	return &isErrorMatch{
		name: name,
	}
}

func (matcher *isErrorMatch) Match(actual interface{}) (success bool, err error) {
	err, ok := actual.(error)
	if !ok {
		return false, fmt.Errorf("%s expects an error", matcher.name.String())
	}

	return err != nil && matcher.name.is(err), nil
}

func (matcher *isErrorMatch) FailureMessage(actual interface{}) (message string) {
	return format.Message(actual, "to be a %s", matcher.name.String())
}

func (matcher *isErrorMatch) NegatedFailureMessage(actual interface{}) (message string) {
	return format.Message(actual, "not to be %s", matcher.name.String())
}
