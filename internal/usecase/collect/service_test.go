package collect

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/transparencia/internal/browser"
	"github.com/kailas-cloud/transparencia/internal/browser/browsertest"
	"github.com/kailas-cloud/transparencia/internal/domain"
	"github.com/kailas-cloud/transparencia/internal/domain/outcome"
	"github.com/kailas-cloud/transparencia/internal/domain/query"
	"github.com/kailas-cloud/transparencia/internal/domain/record"
	"github.com/kailas-cloud/transparencia/internal/domain/search"
	"github.com/kailas-cloud/transparencia/internal/metrics"
)

// --- Mocks ---

type mockPortal struct {
	mu    sync.Mutex
	calls []string

	errs map[string]error

	typed    string
	options  []search.FilterOption
	selected search.FilterOption
	summary  search.Summary
	term     string
	person   record.PersonSummary
	panels   []record.CategoryPanel
	details  map[string][]record.DebtDetail
	// delays per href, to shuffle completion order
	delays map[string]time.Duration

	inFlight    int
	maxInFlight int
}

func (m *mockPortal) hit(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.errs[call]
}

func (m *mockPortal) called(call string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (m *mockPortal) count(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *mockPortal) OpenHome(_ context.Context) error      { return m.hit("OpenHome") }
func (m *mockPortal) AcceptConsent(_ context.Context) error { return m.hit("AcceptConsent") }
func (m *mockPortal) OpenPersonOverview(_ context.Context) error {
	return m.hit("OpenPersonOverview")
}
func (m *mockPortal) SelectPhysicalPerson(_ context.Context) error {
	return m.hit("SelectPhysicalPerson")
}

func (m *mockPortal) TypeTerm(_ context.Context, term string) error {
	m.typed = term
	return m.hit("TypeTerm")
}

func (m *mockPortal) OpenRefinePanel(_ context.Context) error { return m.hit("OpenRefinePanel") }

func (m *mockPortal) FilterOptions(_ context.Context) ([]search.FilterOption, error) {
	return m.options, m.hit("FilterOptions")
}

func (m *mockPortal) SelectFilter(_ context.Context, opt search.FilterOption) error {
	m.selected = opt
	return m.hit("SelectFilter")
}

func (m *mockPortal) Submit(_ context.Context) (search.Summary, error) {
	return m.summary, m.hit("Submit")
}

func (m *mockPortal) DisplayedTerm(_ context.Context) (string, error) {
	return m.term, m.hit("DisplayedTerm")
}

func (m *mockPortal) OpenFirstResult(_ context.Context) error { return m.hit("OpenFirstResult") }

func (m *mockPortal) ReadPerson(_ context.Context) (record.PersonSummary, error) {
	return m.person, m.hit("ReadPerson")
}

func (m *mockPortal) ExpandBenefits(_ context.Context) error { return m.hit("ExpandBenefits") }

func (m *mockPortal) ReadCategoryPanels(_ context.Context) ([]record.CategoryPanel, error) {
	return m.panels, m.hit("ReadCategoryPanels")
}

func (m *mockPortal) ReadDetail(_ context.Context, href string) ([]record.DebtDetail, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.delays[href]
	m.mu.Unlock()

	time.Sleep(delay)

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	return m.details[href], m.hit("ReadDetail:" + href)
}

type fixture struct {
	portal  *mockPortal
	session *browsertest.Session
	opener  *browsertest.Opener
	svc     *Service
}

func newFixture(p *mockPortal) *fixture {
	session := &browsertest.Session{Primary: browsertest.NewPage()}
	opener := &browsertest.Opener{Session: session}
	svc := New(opener, func(browser.Session) Portal { return p })
	return &fixture{portal: p, session: session, opener: opener, svc: svc}
}

func personWithBenefits() *mockPortal {
	return &mockPortal{
		summary: search.Summary{TotalCount: 1},
		person:  record.PersonSummary{Name: "MARIA DA SILVA", Document: "***.456.789-**", Location: "BRASÍLIA - DF"},
		panels: []record.CategoryPanel{
			{Name: "Bolsa Família", Rows: []record.RowLink{
				{AmountReceived: "R$ 600,00", DetailHref: "/bf/1"},
				{AmountReceived: "R$ 650,00", DetailHref: "/bf/2"},
			}},
			{Name: "Auxílio Emergencial", Rows: []record.RowLink{
				{AmountReceived: "R$ 1.200,00", DetailHref: "/ae/1"},
			}},
		},
		details: map[string][]record.DebtDetail{
			"/bf/1": {{"Mês": "01/2024", "Valor": "R$ 600,00"}},
			"/bf/2": {{"Mês": "02/2024", "Valor": "R$ 650,00"}},
			"/ae/1": {{"Parcela": "1", "Valor": "R$ 600,00"}, {"Parcela": "2", "Valor": "R$ 600,00"}},
		},
	}
}

func expectedBenefits() []record.BenefitCategory {
	return []record.BenefitCategory{
		{Name: "Bolsa Família", Rows: []record.BenefitRow{
			{AmountReceived: "R$ 600,00", Details: []record.DebtDetail{{"Mês": "01/2024", "Valor": "R$ 600,00"}}},
			{AmountReceived: "R$ 650,00", Details: []record.DebtDetail{{"Mês": "02/2024", "Valor": "R$ 650,00"}}},
		}},
		{Name: "Auxílio Emergencial", Rows: []record.BenefitRow{
			{AmountReceived: "R$ 1.200,00", Details: []record.DebtDetail{
				{"Parcela": "1", "Valor": "R$ 600,00"},
				{"Parcela": "2", "Valor": "R$ 600,00"},
			}},
		}},
	}
}

// --- Tests ---

func TestCollect_DocumentSuccess(t *testing.T) {
	f := newFixture(personWithBenefits())

	out := f.svc.Collect(context.Background(), query.New("123.456.789-01", ""))

	if out.Kind() != outcome.KindOK {
		t.Fatalf("expected ok, got %s: %s", out.Kind(), out.Message())
	}
	want := record.CollectionResult{
		PersonSummary: f.portal.person,
		Benefits:      expectedBenefits(),
	}
	if diff := cmp.Diff(want, out.Result()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if f.portal.typed != "12345678901" {
		t.Errorf("expected sanitized term typed, got %q", f.portal.typed)
	}
	if f.session.Releases() != 1 {
		t.Errorf("expected exactly one release, got %d", f.session.Releases())
	}
}

func TestCollect_StepOrder(t *testing.T) {
	p := personWithBenefits()
	p.options = []search.FilterOption{{For: "bf", Label: "Beneficiário de Programa Social"}}
	f := newFixture(p)

	f.svc.Collect(context.Background(), query.New("Maria da Silva", "programa social"))

	want := []string{
		"OpenHome", "AcceptConsent", "OpenPersonOverview", "SelectPhysicalPerson",
		"TypeTerm", "OpenRefinePanel", "FilterOptions", "SelectFilter", "Submit",
		"OpenFirstResult", "ReadPerson", "ExpandBenefits", "ReadCategoryPanels",
		"ReadDetail:/bf/1", "ReadDetail:/bf/2", "ReadDetail:/ae/1",
	}
	if diff := cmp.Diff(want, p.calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
	if p.selected.For != "bf" {
		t.Errorf("expected filter option bf selected, got %+v", p.selected)
	}
}

func TestCollect_WithoutFilterSkipsFilterSteps(t *testing.T) {
	f := newFixture(personWithBenefits())

	f.svc.Collect(context.Background(), query.New("Maria", ""))

	if f.portal.called("FilterOptions") || f.portal.called("SelectFilter") {
		t.Error("filter steps should not run without a filter")
	}
	if !f.portal.called("OpenRefinePanel") {
		t.Error("refine panel is opened even without a filter")
	}
}

func TestCollect_FilterNotFound(t *testing.T) {
	p := personWithBenefits()
	p.options = []search.FilterOption{{For: "servidor", Label: "Servidor Público"}}
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("Maria", "Empresa"))

	if out.Kind() != outcome.KindNotFound {
		t.Fatalf("expected not_found, got %s", out.Kind())
	}
	if out.Message() != "Filtro de busca não encontrado: Empresa" {
		t.Errorf("unexpected message %q", out.Message())
	}
	if p.called("Submit") {
		t.Error("search must not be submitted when the filter is missing")
	}
	if f.session.Releases() != 1 {
		t.Errorf("expected exactly one release, got %d", f.session.Releases())
	}
}

func TestCollect_DocumentZeroResults(t *testing.T) {
	p := &mockPortal{summary: search.Summary{TotalCount: 0}, term: "should not be read"}
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("12345678901", ""))

	if out.Kind() != outcome.KindNotFound {
		t.Fatalf("expected not_found, got %s", out.Kind())
	}
	if out.Message() != domain.MsgDocumentNotFound {
		t.Errorf("unexpected message %q", out.Message())
	}
	if p.called("DisplayedTerm") || p.called("OpenFirstResult") || p.called("ReadPerson") {
		t.Errorf("no page reads expected after a zero-result document search, calls: %v", p.calls)
	}
	if f.session.Releases() != 1 {
		t.Errorf("expected exactly one release, got %d", f.session.Releases())
	}
}

func TestCollect_NameZeroResults(t *testing.T) {
	p := &mockPortal{summary: search.Summary{TotalCount: 0}, term: "FULANO DE TAL"}
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("Fulano de Tal!", ""))

	if out.Kind() != outcome.KindNotFound {
		t.Fatalf("expected not_found, got %s", out.Kind())
	}
	if out.Message() != "Foram encontrados 0 resultados para o termo FULANO DE TAL" {
		t.Errorf("unexpected message %q", out.Message())
	}
	if p.called("OpenFirstResult") {
		t.Error("first result must not be opened on zero results")
	}
}

func TestCollect_ExtractionFault(t *testing.T) {
	p := personWithBenefits()
	p.errs = map[string]error{"ReadPerson": domain.Extractionf("person panel has 2 entries, want at least 3")}
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindFault || out.FaultKind() != outcome.FaultExtraction {
		t.Fatalf("expected extraction fault, got %s/%s", out.Kind(), out.FaultKind())
	}
	if !strings.Contains(out.Message(), "read_person") {
		t.Errorf("expected step name in message, got %q", out.Message())
	}
	if errors.Is(out.Err(), domain.ErrInfrastructure) {
		t.Error("extraction fault must not be tagged as infrastructure")
	}
	if f.session.Releases() != 1 {
		t.Errorf("expected exactly one release, got %d", f.session.Releases())
	}
}

func TestCollect_InfrastructureFault(t *testing.T) {
	p := personWithBenefits()
	p.errs = map[string]error{"OpenHome": browser.ErrTimeout}
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindFault || out.FaultKind() != outcome.FaultInfrastructure {
		t.Fatalf("expected infrastructure fault, got %s/%s", out.Kind(), out.FaultKind())
	}
	if !errors.Is(out.Err(), browser.ErrTimeout) {
		t.Errorf("expected wrapped ErrTimeout, got %v", out.Err())
	}
	if !errors.Is(out.Err(), domain.ErrInfrastructure) {
		t.Errorf("expected ErrInfrastructure tag, got %v", out.Err())
	}
	if errors.Is(out.Err(), domain.ErrExtraction) {
		t.Error("infrastructure fault must not match ErrExtraction")
	}
	if p.called("AcceptConsent") {
		t.Error("pipeline must stop at the failing step")
	}
	if f.session.Releases() != 1 {
		t.Errorf("expected exactly one release, got %d", f.session.Releases())
	}
}

func TestCollect_AcquireFails(t *testing.T) {
	p := personWithBenefits()
	factoryCalled := false
	opener := &browsertest.Opener{Err: errors.New("browser launch failed")}
	svc := New(opener, func(browser.Session) Portal {
		factoryCalled = true
		return p
	})

	out := svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindFault || out.FaultKind() != outcome.FaultInfrastructure {
		t.Fatalf("expected infrastructure fault, got %s/%s", out.Kind(), out.FaultKind())
	}
	if !errors.Is(out.Err(), domain.ErrInfrastructure) {
		t.Errorf("expected ErrInfrastructure tag, got %v", out.Err())
	}
	if factoryCalled {
		t.Error("portal must not be built without a session")
	}
}

func TestCollect_CancelledContext(t *testing.T) {
	f := newFixture(personWithBenefits())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := f.svc.Collect(ctx, query.New("Maria", ""))

	if out.Kind() != outcome.KindFault {
		t.Fatalf("expected fault, got %s", out.Kind())
	}
	if !errors.Is(out.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", out.Err())
	}
	if f.portal.called("OpenHome") {
		t.Error("no step should run on a cancelled context")
	}
}

func TestCollect_ReleaseErrorKeepsOutcome(t *testing.T) {
	f := newFixture(personWithBenefits())
	f.session.ReleaseErr = errors.New("browser already gone")

	out := f.svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindOK {
		t.Fatalf("expected ok, got %s: %s", out.Kind(), out.Message())
	}
	if f.session.Releases() != 1 {
		t.Errorf("expected exactly one release, got %d", f.session.Releases())
	}
}

func TestCollect_NoBenefits(t *testing.T) {
	p := personWithBenefits()
	p.panels = nil
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindOK {
		t.Fatalf("expected ok, got %s", out.Kind())
	}
	if b := out.Result().Benefits; b == nil || len(b) != 0 {
		t.Errorf("expected empty non-nil benefits, got %#v", b)
	}
}

func TestCollect_EmptyDetailTable(t *testing.T) {
	p := personWithBenefits()
	p.details = nil
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindOK {
		t.Fatalf("expected ok, got %s", out.Kind())
	}
	for _, c := range out.Result().Benefits {
		for _, r := range c.Rows {
			if r.Details == nil {
				t.Fatalf("expected empty non-nil details for %s", r.AmountReceived)
			}
		}
	}
}

func TestCollect_DetailFailureStopsRemainingRows(t *testing.T) {
	p := personWithBenefits()
	p.errs = map[string]error{"ReadDetail:/bf/2": browser.ErrTimeout}
	f := newFixture(p)

	out := f.svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindFault || out.FaultKind() != outcome.FaultInfrastructure {
		t.Fatalf("expected infrastructure fault, got %s/%s", out.Kind(), out.FaultKind())
	}
	if !strings.Contains(out.Message(), "/bf/2") {
		t.Errorf("expected failing href in message, got %q", out.Message())
	}
	if p.called("ReadDetail:/ae/1") {
		t.Error("rows after the failure must not be fetched")
	}
}

func TestCollect_ConcurrentDetailsKeepOrder(t *testing.T) {
	p := personWithBenefits()
	// First rows finish last.
	p.delays = map[string]time.Duration{
		"/bf/1": 30 * time.Millisecond,
		"/bf/2": 15 * time.Millisecond,
	}
	f := newFixture(p)
	f.svc.WithDetailConcurrency(3)

	out := f.svc.Collect(context.Background(), query.New("Maria", ""))

	if out.Kind() != outcome.KindOK {
		t.Fatalf("expected ok, got %s: %s", out.Kind(), out.Message())
	}
	if diff := cmp.Diff(expectedBenefits(), out.Result().Benefits); diff != "" {
		t.Errorf("benefits mismatch (-want +got):\n%s", diff)
	}
	if p.count("ReadDetail:") != 3 {
		t.Errorf("expected 3 detail reads, got %d", p.count("ReadDetail:"))
	}
	if p.maxInFlight > 3 {
		t.Errorf("expected at most 3 detail reads in flight, got %d", p.maxInFlight)
	}
}

func TestCollect_SequentialDetailsByDefault(t *testing.T) {
	p := personWithBenefits()
	p.delays = map[string]time.Duration{"/bf/1": 5 * time.Millisecond}
	f := newFixture(p)

	f.svc.Collect(context.Background(), query.New("Maria", ""))

	if p.maxInFlight != 1 {
		t.Errorf("expected one detail read at a time, got %d", p.maxInFlight)
	}
}

func TestWithDetailConcurrency_Floor(t *testing.T) {
	svc := New(&browsertest.Opener{}, nil).WithDetailConcurrency(0)
	if svc.detailConcurrency != 1 {
		t.Errorf("expected concurrency floor of 1, got %d", svc.detailConcurrency)
	}
}

func TestCollect_CountsOutcomesAndDetails(t *testing.T) {
	okBefore := testutil.ToFloat64(metrics.CollectionsTotal.WithLabelValues("ok"))
	nfBefore := testutil.ToFloat64(metrics.CollectionsTotal.WithLabelValues("not_found"))
	detailsBefore := testutil.ToFloat64(metrics.DetailFetchesTotal.WithLabelValues("ok"))

	newFixture(personWithBenefits()).svc.Collect(context.Background(), query.New("12345678901", ""))
	newFixture(&mockPortal{summary: search.Summary{TotalCount: 0}}).svc.Collect(context.Background(), query.New("12345678901", ""))

	if got := testutil.ToFloat64(metrics.CollectionsTotal.WithLabelValues("ok")) - okBefore; got != 1 {
		t.Errorf("ok collections delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CollectionsTotal.WithLabelValues("not_found")) - nfBefore; got != 1 {
		t.Errorf("not_found collections delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.DetailFetchesTotal.WithLabelValues("ok")) - detailsBefore; got != 3 {
		t.Errorf("detail fetches delta = %v, want 3", got)
	}
}
