package chi

import "github.com/kailas-cloud/transparencia/internal/domain/record"

type collectRequest struct {
	ParametroBusca *string `json:"parametro_busca"`
	FiltroBusca    string  `json:"filtro_busca"`
}

type errorResponse struct {
	MensagemErro string `json:"mensagem_erro"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type collectionResponse struct {
	Nome       string            `json:"nome"`
	CPF        string            `json:"cpf"`
	Localidade string            `json:"localidade"`
	Beneficios []benefitResponse `json:"beneficios"`
}

type benefitResponse struct {
	Nome  string        `json:"nome"`
	Dados []rowResponse `json:"dados"`
}

type rowResponse struct {
	ValorRecebido string              `json:"valor_recebido"`
	Detalhar      []map[string]string `json:"detalhar"`
}

func collectionToResponse(r record.CollectionResult) collectionResponse {
	benefits := make([]benefitResponse, len(r.Benefits))
	for i, c := range r.Benefits {
		rows := make([]rowResponse, len(c.Rows))
		for j, row := range c.Rows {
			details := make([]map[string]string, len(row.Details))
			for k, d := range row.Details {
				details[k] = d
			}
			rows[j] = rowResponse{ValorRecebido: row.AmountReceived, Detalhar: details}
		}
		benefits[i] = benefitResponse{Nome: c.Name, Dados: rows}
	}
	return collectionResponse{
		Nome:       r.Name,
		CPF:        r.Document,
		Localidade: r.Location,
		Beneficios: benefits,
	}
}
