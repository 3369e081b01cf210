package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Email types carried on queue jobs and persisted on email logs.
const (
	TypeOrderCreated    = "order_created"
	TypeStatusChanged   = "status_changed"
	TypeCommentAdded    = "comment_added"
	TypePasswordReset   = "password_reset"
	TypeAccountApproved = "account_approved"
)

// OrderEmailData feeds the order-related templates.
type OrderEmailData struct {
	RecipientName string
	OrderNumber   string
	OrderTitle    string
	Condominium   string
	Priority      string
	Status        string
	OldStatus     string
	CommentAuthor string
	CommentText   string
	AppName       string
}

// ResetEmailData feeds the password reset template.
type ResetEmailData struct {
	RecipientName string
	ResetURL      string
	AppName       string
}

var orderCreatedTmpl = template.Must(template.New("order_created").Parse(`
<h2>Nova Ordem de Serviço</h2>
<p>Olá {{.RecipientName}},</p>
<p>A ordem de serviço <strong>{{.OrderNumber}}</strong> foi criada no condomínio <strong>{{.Condominium}}</strong>.</p>
<p><strong>Título:</strong> {{.OrderTitle}}<br>
<strong>Prioridade:</strong> {{.Priority}}</p>
<p>{{.AppName}}</p>
`))

var statusChangedTmpl = template.Must(template.New("status_changed").Parse(`
<h2>Atualização de Status</h2>
<p>Olá {{.RecipientName}},</p>
<p>A ordem de serviço <strong>{{.OrderNumber}}</strong> ({{.OrderTitle}}) mudou de status:</p>
<p><strong>{{.OldStatus}}</strong> &rarr; <strong>{{.Status}}</strong></p>
<p>{{.AppName}}</p>
`))

var commentAddedTmpl = template.Must(template.New("comment_added").Parse(`
<h2>Novo Comentário</h2>
<p>Olá {{.RecipientName}},</p>
<p><strong>{{.CommentAuthor}}</strong> comentou na ordem de serviço <strong>{{.OrderNumber}}</strong>:</p>
<blockquote>{{.CommentText}}</blockquote>
<p>{{.AppName}}</p>
`))

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`
<h2>Redefinição de Senha</h2>
<p>Olá {{.RecipientName}},</p>
<p>Recebemos uma solicitação para redefinir a sua senha. O link abaixo é válido por 24 horas:</p>
<p><a href="{{.ResetURL}}">Redefinir senha</a></p>
<p>Se você não solicitou a redefinição, ignore este email.</p>
<p>{{.AppName}}</p>
`))

var accountApprovedTmpl = template.Must(template.New("account_approved").Parse(`
<h2>Conta Aprovada</h2>
<p>Olá {{.RecipientName}},</p>
<p>A sua conta foi aprovada e você já pode acessar o sistema.</p>
<p>{{.AppName}}</p>
`))

// RenderOrderCreated builds the subject and body for an order creation notice.
func RenderOrderCreated(data OrderEmailData) (subject, body string, err error) {
	subject = fmt.Sprintf("Nova OS %s - %s", data.OrderNumber, data.OrderTitle)
	body, err = render(orderCreatedTmpl, data)
	return subject, body, err
}

// RenderStatusChanged builds the subject and body for a status change notice.
func RenderStatusChanged(data OrderEmailData) (subject, body string, err error) {
	subject = fmt.Sprintf("OS %s agora está %s", data.OrderNumber, data.Status)
	body, err = render(statusChangedTmpl, data)
	return subject, body, err
}

// RenderCommentAdded builds the subject and body for a new comment notice.
func RenderCommentAdded(data OrderEmailData) (subject, body string, err error) {
	subject = fmt.Sprintf("Novo comentário na OS %s", data.OrderNumber)
	body, err = render(commentAddedTmpl, data)
	return subject, body, err
}

// RenderPasswordReset builds the subject and body for a password reset email.
func RenderPasswordReset(data ResetEmailData) (subject, body string, err error) {
	subject = fmt.Sprintf("%s - Redefinição de senha", data.AppName)
	body, err = render(passwordResetTmpl, data)
	return subject, body, err
}

// RenderAccountApproved builds the subject and body for an approval notice.
func RenderAccountApproved(data OrderEmailData) (subject, body string, err error) {
	subject = fmt.Sprintf("%s - Conta aprovada", data.AppName)
	body, err = render(accountApprovedTmpl, data)
	return subject, body, err
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
