package record

import "testing"

func TestNewCollectionResult(t *testing.T) {
	person := PersonSummary{Name: "JOHN DOE", Document: "***.456.789-**", Location: "Brasília - DF"}
	benefits := []BenefitCategory{
		{Name: "Auxílio Brasil", Rows: []BenefitRow{
			{AmountReceived: "R$ 600,00", Details: []DebtDetail{{"Mês": "01/2023"}}},
			{AmountReceived: "R$ 400,00"},
		}},
		{Name: "Bolsa Família", Rows: []BenefitRow{{AmountReceived: "R$ 89,00"}}},
	}

	r := NewCollectionResult(person, benefits)

	if r.Name != person.Name || r.Document != person.Document || r.Location != person.Location {
		t.Errorf("person fields not flattened: %+v", r.PersonSummary)
	}
	if len(r.Benefits) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(r.Benefits))
	}
	if r.Benefits[0].Name != "Auxílio Brasil" {
		t.Errorf("category order changed: %q first", r.Benefits[0].Name)
	}
	if r.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", r.RowCount())
	}
}

func TestNewCollectionResult_NilBenefits(t *testing.T) {
	r := NewCollectionResult(PersonSummary{Name: "X"}, nil)
	if r.Benefits == nil {
		t.Fatal("expected empty, non-nil benefits")
	}
	if r.RowCount() != 0 {
		t.Errorf("RowCount() = %d, want 0", r.RowCount())
	}
}
