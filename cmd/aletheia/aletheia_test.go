package aletheiacmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	aletheiacmder "github.com/papercomputeco/aletheia/cmd/aletheia"
	"github.com/papercomputeco/aletheia/pkg/classifier"
	testutils "github.com/papercomputeco/aletheia/pkg/utils/test"
)

const verdictReply = `{"label": "verdadeira", "confidence": 0.9, "rationale": "A taxa de juros foi reduzida pelo Copom.", "used_sources": ["bcb.gov.br"]}`

const seedCSV = `text,title,label,source
O Copom reduziu a taxa de juros em 0.5 ponto,Copom corta juros,VERDADEIRA,bcb.gov.br
Vacina altera o DNA humano,Boato vacina,FALSA,lupa.news
`

var _ = Describe("NewAletheiaCmd", func() {
	It("registers every subcommand", func() {
		cmd := aletheiacmder.NewAletheiaCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"check", "ingest", "evaluate", "serve", "search", "status", "config", "init", "version",
		))
	})

	It("has the global flags", func() {
		cmd := aletheiacmder.NewAletheiaCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})

var _ = Describe("aletheia end to end", func() {
	var (
		fake      *testutils.FakeOllama
		configDir string
		csvPath   string
	)

	run := func(args ...string) (string, error) {
		out := &bytes.Buffer{}
		cmd := aletheiacmder.NewAletheiaCmd()
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", configDir))
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	BeforeEach(func() {
		fake = testutils.NewFakeOllama(verdictReply)
		DeferCleanup(fake.Close)

		root := GinkgoT().TempDir()
		configDir = filepath.Join(root, ".aletheia")
		csvPath = filepath.Join(root, "seed.csv")
		Expect(os.WriteFile(csvPath, []byte(seedCSV), 0o600)).To(Succeed())

		toml := fmt.Sprintf(`version = 0

[ollama]
host = %q

[embedding]
dimensions = %d

[vector_store]
persist_dir = %q

[web]
enabled = false

[ingest]
seed_csv = %q
`, fake.URL, testutils.FakeOllamaDimensions, filepath.Join(root, "db"), csvPath)
		Expect(os.MkdirAll(configDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(toml), 0o600)).To(Succeed())
	})

	It("ingests, checks, evaluates and reports status", func() {
		out, err := run("ingest")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Indexados:"))

		out, err = run("check", "--text", "A taxa de juros foi reduzida", "--no-web", "--json")
		Expect(err).NotTo(HaveOccurred())

		var res classifier.Result
		Expect(json.Unmarshal([]byte(out), &res)).To(Succeed())
		Expect(res.OK()).To(BeTrue())
		Expect(res.Label).To(Equal(classifier.LabelTrue))
		Expect(res.UsedSources).To(ContainElement("bcb.gov.br"))
		Expect(res.Debug).NotTo(BeNil())
		Expect(res.Debug.Hits).To(BeNumerically(">", 0))

		Expect(fake.Prompts()).NotTo(BeEmpty())
		Expect(fake.Prompts()[len(fake.Prompts())-1]).To(ContainSubstring("A taxa de juros foi reduzida"))

		out, err = run("evaluate")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Total de amostras para avaliação: 2"))
		Expect(out).To(ContainSubstring("RELATÓRIO DE CLASSIFICAÇÃO"))
		Expect(out).To(ContainSubstring("Linhas/colunas na ordem: ['VERDADEIRA', 'FALSA']"))

		out, err = run("status")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Documentos:"))
		Expect(out).To(ContainSubstring("vereditos"))
	})

	It("checks against the corpus alone when web search is disabled in config", func() {
		_, err := run("ingest")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("check", "--text", "A taxa de juros foi reduzida", "--json")
		Expect(err).NotTo(HaveOccurred())

		var res classifier.Result
		Expect(json.Unmarshal([]byte(out), &res)).To(Succeed())
		Expect(res.OK()).To(BeTrue())
		Expect(res.Label).To(Equal(classifier.LabelTrue))
		Expect(res.WebResults).To(BeEmpty())
	})

	It("prints the error shape when the model reply is not JSON", func() {
		_, err := run("ingest")
		Expect(err).NotTo(HaveOccurred())

		fake.SetReply("não sei dizer")
		out, err := run("check", "-t", "Vacina altera o DNA", "--no-web", "--json")
		Expect(err).NotTo(HaveOccurred())

		var res classifier.Result
		Expect(json.Unmarshal([]byte(out), &res)).To(Succeed())
		Expect(res.OK()).To(BeFalse())
		Expect(res.Error).To(Equal(classifier.InvalidJSONMessage))
		Expect(res.Raw).To(Equal("não sei dizer"))
	})

	It("shows the retrieved context for a query", func() {
		_, err := run("ingest")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("search", "taxa de juros")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("CONTEXTO FINAL DO RAG"))
		Expect(out).To(ContainSubstring("Copom corta juros"))
	})

	It("requires either text or url", func() {
		_, err := run("check")
		Expect(err).To(HaveOccurred())
	})

	It("rejects text and url together", func() {
		_, err := run("check", "-t", "x", "-u", "https://exemplo.com")
		Expect(err).To(HaveOccurred())
	})
})
