package keyserver_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestKeyServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Key Server Control Plane Suite")
}
