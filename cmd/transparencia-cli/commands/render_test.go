package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/transparencia/internal/domain/record"
	sdk "github.com/kailas-cloud/transparencia/pkg/sdk"
)

func sampleRecord() record.CollectionResult {
	return record.NewCollectionResult(
		record.PersonSummary{Name: "MARIA DA SILVA", Document: "***.456.789-**", Location: "BRASÍLIA - DF"},
		[]record.BenefitCategory{{
			Name: "Bolsa Família",
			Rows: []record.BenefitRow{{
				AmountReceived: "R$ 600,00",
				Details: []record.DebtDetail{
					{"Mês": "01/2024", "Valor": "R$ 600,00"},
					{"Mês": "02/2024", "Valor": "R$ 650,00"},
				},
			}},
		}},
	)
}

func TestFromRecord(t *testing.T) {
	got := fromRecord(sampleRecord())
	want := &sdk.Result{
		Name:     "MARIA DA SILVA",
		Document: "***.456.789-**",
		Location: "BRASÍLIA - DF",
		Benefits: []sdk.Benefit{{
			Name: "Bolsa Família",
			Rows: []sdk.Row{{
				AmountReceived: "R$ 600,00",
				Details: []map[string]string{
					{"Mês": "01/2024", "Valor": "R$ 600,00"},
					{"Mês": "02/2024", "Valor": "R$ 650,00"},
				},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fromRecord mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRecord_EmptyBenefits(t *testing.T) {
	got := fromRecord(record.NewCollectionResult(record.PersonSummary{Name: "JOSE"}, nil))
	if got.Benefits == nil || len(got.Benefits) != 0 {
		t.Fatalf("expected empty non-nil benefits, got %#v", got.Benefits)
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := render(&buf, outputJSON, fromRecord(sampleRecord())); err != nil {
		t.Fatalf("render: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(buf.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	for _, key := range []string{"nome", "cpf", "localidade", "beneficios"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := render(&buf, outputTable, fromRecord(sampleRecord())); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"MARIA DA SILVA", "Bolsa Família", "R$ 600,00", "Mês: 01/2024, Valor: R$ 600,00"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_TableWithoutBenefits(t *testing.T) {
	var buf bytes.Buffer
	if err := render(&buf, outputTable, fromRecord(record.NewCollectionResult(record.PersonSummary{Name: "JOSE"}, nil))); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "Benefício") {
		t.Errorf("expected no benefits table:\n%s", buf.String())
	}
}

func TestFormatDetails(t *testing.T) {
	got := formatDetails([]map[string]string{
		{"b": "2", "a": "1"},
		{"c": "3"},
	})
	if want := "a: 1, b: 2\nc: 3"; got != want {
		t.Errorf("formatDetails = %q, want %q", got, want)
	}
}

func TestRenderHealth_Table(t *testing.T) {
	var buf bytes.Buffer
	err := renderHealth(&buf, outputTable, sdk.HealthStatus{Status: "degraded", Checks: map[string]string{"browser": "error"}})
	if err != nil {
		t.Fatalf("renderHealth: %v", err)
	}
	for _, want := range []string{"service", "degraded", "browser", "error"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("health output missing %q:\n%s", want, buf.String())
		}
	}
}
