package transparencia

// Result is the benefit record of one person.
type Result struct {
	Name     string    `json:"nome"`
	Document string    `json:"cpf"`
	Location string    `json:"localidade"`
	Benefits []Benefit `json:"beneficios"`
}

// Benefit is one benefit category with its disbursement rows.
type Benefit struct {
	Name string `json:"nome"`
	Rows []Row  `json:"dados"`
}

// Row is one disbursement with the lines of its detail page.
type Row struct {
	AmountReceived string              `json:"valor_recebido"`
	Details        []map[string]string `json:"detalhar"`
}

type collectRequest struct {
	Term   string `json:"parametro_busca"`
	Filter string `json:"filtro_busca,omitempty"`
}

// collectResponse is either a Result or an error message.
type collectResponse struct {
	Message *string `json:"mensagem_erro"`
	Result
}

type errorBody struct {
	Message string `json:"mensagem_erro"`
}
