package server

import (
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)

	RunSpecs(t, "Transfer Server Suite")
}

var _ = BeforeSuite(func() {
	gin.SetMode(gin.TestMode)
})
