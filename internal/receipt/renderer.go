package receipt

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/vetmais/payments/internal/domain"
)

const documentTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Recibo {{.Number}}</title>
</head>
<body>
<header>
  <h1>Recibo de pagamento</h1>
  <p>Número: <strong>{{.Number}}</strong></p>
  <p>Emitido em: {{.CreatedAt.Format "02/01/2006 15:04"}}</p>
</header>
<section>
  <h2>Cliente</h2>
  <p>{{.ClientName}}</p>
  {{if .ClientEmail}}<p>{{.ClientEmail}}</p>{{end}}
  {{if .ClientTaxID}}<p>Documento: {{.ClientTaxID}}</p>{{end}}
</section>
<section>
  <h2>Itens</h2>
  <table>
    <tr><th>Pet</th><th>Plano</th><th>Descrição</th><th>Valor</th><th>Desconto</th></tr>
    {{range .Items}}
    <tr>
      <td>{{.PetName}}</td>
      <td>{{.PlanName}}</td>
      <td>{{.Description}}</td>
      <td>{{cents .AmountCents}}</td>
      <td>{{cents .DiscountCents}}</td>
    </tr>
    {{end}}
  </table>
  <p>Total: <strong>{{cents .TotalCents}} {{.Currency}}</strong></p>
</section>
{{if .Installment}}
<section>
  <h2>Parcela</h2>
  <p>Período: {{.Installment.Period}} — parcela {{.Installment.Number}}</p>
  <p>Vencimento: {{.Installment.DueDate.Format "02/01/2006"}}</p>
</section>
{{end}}
<section>
  <h2>Pagamento</h2>
  <p>Método: {{.PaymentMethod}}</p>
  <p>Identificador: {{.PaymentID}}</p>
  {{if .TID}}<p>TID: {{.TID}}</p>{{end}}
  {{if .ProofOfSale}}<p>Comprovante de venda: {{.ProofOfSale}}</p>{{end}}
  {{if .AuthorizationCode}}<p>Autorização: {{.AuthorizationCode}}</p>{{end}}
</section>
</body>
</html>
`

// HTMLRenderer renders receipt records as self-contained HTML documents.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"cents": formatCents,
	}).Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) Render(record *domain.ReceiptRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, record); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", record.Number, err)
	}
	return buf.Bytes(), nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d", sign, cents/100, cents%100)
}
