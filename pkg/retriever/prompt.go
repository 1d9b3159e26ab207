package retriever

import "fmt"

const promptTemplate = "Você é um verificador de fatos. Use APENAS as evidências abaixo para avaliar o enunciado.\n\n" +
	"Enunciado a avaliar:\n" +
	"```\n%s\n```\n\n" +
	"Evidências (contexto recuperado):\n" +
	"%s\n\n" +
	"Instruções:\n" +
	"1) Se as evidências contradizem, responda FALSA.\n" +
	"2) Se corroboram consistentemente, responda VERDADEIRA.\n" +
	"3) Se o material for insuficiente, indique incerteza e reduza a confiança.\n"

// BuildPrompt embeds the claim and the evidence context verbatim in the
// user prompt.
func BuildPrompt(claim, context string) string {
	return fmt.Sprintf(promptTemplate, claim, context)
}
