package versioncmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/aletheia/cmd/version"
	"github.com/papercomputeco/aletheia/pkg/utils"
)

var _ = Describe("NewVersionCmd", func() {
	run := func(args ...string) string {
		var out bytes.Buffer
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("prints version, commit and build time", func() {
		out := run()
		Expect(out).To(ContainSubstring("Version:  " + utils.Version))
		Expect(out).To(ContainSubstring("Commit:   " + utils.Sha))
		Expect(out).To(ContainSubstring("Built at: " + utils.Buildtime))
	})

	It("prints the bare version with --short", func() {
		Expect(run("--short")).To(Equal(utils.Version + "\n"))
	})
})
