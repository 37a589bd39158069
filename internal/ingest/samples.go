package ingest

import "github.com/fyrsmithlabs/ragchat/internal/vectorstore"

// SampleDocuments returns the built-in Nerd-o corpus used by
// `ragchat ingest --samples`.
func SampleDocuments() []vectorstore.Document {
	return []vectorstore.Document{
		{
			Content:  "A nerd-o é uma startup de AI para escolas que desenvolve soluções educacionais inovadoras.",
			Metadata: map[string]any{"source": "sobre_empresa", "categoria": "institucional"},
		},
		{
			Content:  "A nerd-o tem 3 sócios: Arthur, Rossetto e Gordon, que trabalham juntos no desenvolvimento de tecnologias educacionais.",
			Metadata: map[string]any{"source": "equipe", "categoria": "pessoas"},
		},
		{
			Content:  "A empresa foca em inteligência artificial aplicada à educação, criando ferramentas para melhorar o aprendizado.",
			Metadata: map[string]any{"source": "missao", "categoria": "tecnologia"},
		},
		{
			Content:  "As soluções da nerd-o incluem sistemas de recomendação personalizados e análise de desempenho estudantil.",
			Metadata: map[string]any{"source": "produtos", "categoria": "servicos"},
		},
	}
}
