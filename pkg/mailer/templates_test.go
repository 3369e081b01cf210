package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrderCreated(t *testing.T) {
	subject, body, err := RenderOrderCreated(OrderEmailData{
		RecipientName: "Maria",
		OrderNumber:   "OS-2026-0012",
		OrderTitle:    "Troca de lâmpadas",
		Condominium:   "Residencial Aurora",
		Priority:      "Alta",
		AppName:       "Sistema OS",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nova OS OS-2026-0012 - Troca de lâmpadas", subject)
	assert.Contains(t, body, "Maria")
	assert.Contains(t, body, "OS-2026-0012")
	assert.Contains(t, body, "Residencial Aurora")
	assert.Contains(t, body, "Alta")
}

func TestRenderStatusChanged(t *testing.T) {
	subject, body, err := RenderStatusChanged(OrderEmailData{
		RecipientName: "João",
		OrderNumber:   "OS-2026-0012",
		OrderTitle:    "Troca de lâmpadas",
		OldStatus:     "Aberta",
		Status:        "Em Andamento",
		AppName:       "Sistema OS",
	})
	require.NoError(t, err)
	assert.Equal(t, "OS OS-2026-0012 agora está Em Andamento", subject)
	assert.Contains(t, body, "Aberta")
	assert.Contains(t, body, "Em Andamento")
}

func TestRenderCommentEscapesHTML(t *testing.T) {
	_, body, err := RenderCommentAdded(OrderEmailData{
		RecipientName: "Maria",
		OrderNumber:   "OS-2026-0012",
		CommentAuthor: "João",
		CommentText:   `<script>alert("x")</script>`,
		AppName:       "Sistema OS",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestRenderPasswordReset(t *testing.T) {
	subject, body, err := RenderPasswordReset(ResetEmailData{
		RecipientName: "Maria",
		ResetURL:      "https://os.example.com/reset-password?token=abc",
		AppName:       "Sistema OS",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sistema OS - Redefinição de senha", subject)
	assert.Contains(t, body, "https://os.example.com/reset-password?token=abc")
	assert.Contains(t, body, "24 horas")
}

func TestRenderAccountApproved(t *testing.T) {
	subject, body, err := RenderAccountApproved(OrderEmailData{
		RecipientName: "Carlos",
		AppName:       "Sistema OS",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sistema OS - Conta aprovada", subject)
	assert.Contains(t, body, "Carlos")
}
