package prompt

// ============================================================================
// Prompts are in Brazilian Portuguese; the price is asked for in BRL.
// ============================================================================

// ContentPromptPtBR asks for the four text fields of the product.
// Args: topic, audience
const ContentPromptPtBR = `Você é um especialista em marketing digital e criação de produtos digitais.
Com base no tópico "%s" e no público-alvo "%s", crie um produto digital conciso.

Retorne um objeto JSON com a seguinte estrutura:
- "title": um título cativante e curto.
- "description": uma descrição de venda persuasiva de 2-3 frases.
- "price": um preço sugerido em BRL, ex: "R$ 27,90".
- "content": o conteúdo principal do produto, como um guia passo-a-passo ou uma lista de dicas, com cerca de 300-400 palavras, formatado em markdown simples (use # para título, * para listas, e \n para parágrafos).`

// CoverPromptPtBR asks for an abstract cover without text.
// Args: title
const CoverPromptPtBR = `Crie uma imagem de capa de e-book minimalista e profissional para um produto digital com o título "%s". A imagem deve ser abstrata, usando uma paleta de cores moderna e atraente, como azul, roxo e dourado. Evite usar qualquer texto na imagem. O estilo deve ser elegante e digital.`

// User-facing messages
const (
	ValidationMessage = "Por favor, preencha o tópico e o público-alvo."
	FailureMessage    = "Falha ao gerar o produto. Detalhes: %s"
	UnknownError      = "Ocorreu um erro desconhecido."
)
