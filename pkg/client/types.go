/*-------------------------------------------------------------------------
 *
 * types.go
 *    Wire types for the Centro de Comando API client
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    pkg/client/types.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID                uuid.UUID `json:"id"`
	Titulo            string    `json:"titulo"`
	Ativa             bool      `json:"ativa"`
	Arquivada         bool      `json:"arquivada"`
	CriadaEm          time.Time `json:"criada_em"`
	UltimaAtividadeEm time.Time `json:"ultima_atividade_em"`
}

type TableCell struct {
	Text  string `json:"texto"`
	Color string `json:"cor,omitempty"`
}

type TableColumn struct {
	Key   string `json:"chave"`
	Label string `json:"rotulo"`
	Kind  string `json:"tipo"`
}

type TabularView struct {
	Columns    []TableColumn `json:"colunas,omitempty"`
	Rows       [][]TableCell `json:"linhas,omitempty"`
	TotalRows  int           `json:"total_linhas"`
	HiddenRows int           `json:"linhas_ocultas,omitempty"`
	Summary    string        `json:"resumo,omitempty"`
}

type RenderedResult struct {
	Tabela   string      `json:"tabela"`
	Consulta string      `json:"consulta,omitempty"`
	Visao    TabularView `json:"visao"`
}

type Message struct {
	ID         int64            `json:"id"`
	SessaoID   uuid.UUID        `json:"sessao_id"`
	Papel      string           `json:"papel"`
	Conteudo   *string          `json:"conteudo,omitempty"`
	Erro       *string          `json:"erro,omitempty"`
	Carregando bool             `json:"carregando"`
	Resultados []RenderedResult `json:"resultados,omitempty"`
	CriadoEm   time.Time        `json:"criado_em"`
}

type ProposedAction struct {
	Kind        string                 `json:"tipo"`
	Table       string                 `json:"tabela"`
	Explanation string                 `json:"explicacao,omitempty"`
	Dados       map[string]interface{} `json:"dados,omitempty"`
	Antes       map[string]interface{} `json:"antes,omitempty"`
	Depois      map[string]interface{} `json:"depois,omitempty"`
	Registro    map[string]interface{} `json:"registro,omitempty"`
}

type FieldChange struct {
	Field  string      `json:"campo"`
	Antes  interface{} `json:"antes"`
	Depois interface{} `json:"depois"`
}

type PendingAction struct {
	ID            uuid.UUID      `json:"id"`
	SessaoID      uuid.UUID      `json:"sessao_id"`
	Proposed      ProposedAction `json:"acao"`
	Changes       []FieldChange  `json:"alteracoes,omitempty"`
	Status        string         `json:"status"`
	DoubleConfirm bool           `json:"dupla_confirmacao"`
	ProposedAt    time.Time      `json:"proposta_em"`
}

type Turn struct {
	Sessao       Session        `json:"sessao"`
	Mensagem     Message        `json:"mensagem"`
	Resposta     Message        `json:"resposta"`
	AcaoPendente *PendingAction `json:"acao_pendente,omitempty"`
}

type ActionOutcome struct {
	Acao      *PendingAction `json:"acao"`
	Executada bool           `json:"executada"`
	Erro      string         `json:"erro,omitempty"`
	Proxima   *PendingAction `json:"proxima,omitempty"`
}

type Feedback struct {
	MensagemID int64     `json:"mensagem_id"`
	Tipo       string    `json:"tipo"`
	Correcao   *string   `json:"correcao,omitempty"`
	CriadoEm   time.Time `json:"criado_em"`
}

type ActionRecord struct {
	ID          uuid.UUID              `json:"id"`
	SessaoID    uuid.UUID              `json:"sessao_id"`
	Tipo        string                 `json:"tipo"`
	Tabela      string                 `json:"tabela"`
	Explicacao  string                 `json:"explicacao"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Status      string                 `json:"status"`
	Erro        *string                `json:"erro,omitempty"`
	CriadaEm    time.Time              `json:"criada_em"`
	ResolvidaEm *time.Time             `json:"resolvida_em,omitempty"`
}
