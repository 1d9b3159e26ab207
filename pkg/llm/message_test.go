package llm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/llm"
)

var _ = Describe("Message", func() {
	It("joins the text blocks in order", func() {
		m := llm.NewTextMessage(llm.RoleUser, "Enunciado: ", "A taxa de juros caiu")
		Expect(m.Content).To(HaveLen(2))
		Expect(m.GetText()).To(Equal("Enunciado: A taxa de juros caiu"))
	})

	It("ignores non-text blocks", func() {
		m := llm.Message{Role: llm.RoleAssistant, Content: []llm.ContentBlock{
			{Type: "image"},
			{Type: "text", Text: "ok"},
		}}
		Expect(m.GetText()).To(Equal("ok"))
	})
})
