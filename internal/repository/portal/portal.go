// Package portal drives the Portal da Transparência pages through a browser session.
// Every selector and URL of the site lives in this package.
package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/transparencia/internal/browser"
	"github.com/kailas-cloud/transparencia/internal/domain/search"
)

// DefaultBaseURL is the public portal.
const DefaultBaseURL = "https://portaldatransparencia.gov.br"

const (
	personOverviewPath = "/pessoa/visao-geral"

	selConsentButton   = "#accept-all-btn"
	selPhysicalPerson  = "#button-consulta-pessoa-fisica"
	selTermInput       = "#termo"
	selSubmit          = "#btnConsultarPF"
	selDisplayedTerm   = "#infoTermo strong"
	selFirstResult     = "a.link-busca-nome"
	selMainContent     = "#main-content"
	selPersonEntries   = "section.dados-tabelados div.row div"
	selPanels          = "div.responsive"
	selPanelName       = "strong"
	selPanelRows       = "#tabela-visao-geral-sancoes tbody tr"
	selCells           = "td"
	selDetailTable     = "table.dataTable.no-footer"
	selDetailRows      = "table.dataTable.no-footer tbody tr[role='row']"
	selDetailCells     = "td span"
	attrDetailLabel    = "data-original-title"
	textRefinePanel    = "Refine a Busca"
	textBenefitsTab    = "Recebimentos de recursos"
	textDetailLink     = "Detalhar"
	amountColumn       = 3
	personEntryCount   = 3
	searchResultSuffix = "/pessoa-fisica/busca/resultado"
)

// Config holds pacing and timeouts. Millisecond fields follow the browser options.
type Config struct {
	BaseURL           string
	NavigationTimeout float64
	ActionTimeout     float64
	ResponseTimeout   float64
	TypeDelay         float64
	ClickDelay        float64

	// Stabilization of the benefits tab. SettleDelay > 0 replaces polling with a fixed wait.
	StabilizeInterval time.Duration
	StabilizePolls    int
	StabilizeTimeout  time.Duration
	SettleDelay       time.Duration
}

// DefaultConfig returns the pacing used against the public portal.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		NavigationTimeout: 60000,
		ActionTimeout:     30000,
		ResponseTimeout:   60000,
		TypeDelay:         250,
		ClickDelay:        1000,
		StabilizeInterval: 250 * time.Millisecond,
		StabilizePolls:    3,
		StabilizeTimeout:  5 * time.Second,
	}
}

// Reader navigates and reads the portal on one session.
type Reader struct {
	session   browser.Session
	page      browser.Page
	cfg       Config
	base      *url.URL
	resultURL *regexp.Regexp
}

// New creates a Reader bound to session.
func New(session browser.Session, cfg Config) *Reader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	base, err := url.Parse(cfg.BaseURL + "/")
	if err != nil {
		base = &url.URL{Scheme: "https", Host: "portaldatransparencia.gov.br", Path: "/"}
	}
	return &Reader{
		session:   session,
		page:      session.Page(),
		cfg:       cfg,
		base:      base,
		resultURL: regexp.MustCompile("^" + regexp.QuoteMeta(cfg.BaseURL+searchResultSuffix)),
	}
}

func (r *Reader) navigate(target string) error {
	err := r.page.Navigate(target, browser.NavigateOptions{
		WaitUntil: browser.LoadStateDOMContentLoaded,
		Timeout:   r.cfg.NavigationTimeout,
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	return nil
}

func (r *Reader) click(selector string, delay float64) error {
	if err := r.page.Click(selector, browser.ClickOptions{Delay: delay, Timeout: r.cfg.ActionTimeout}); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (r *Reader) clickText(text string, delay float64) error {
	if err := r.page.ClickText(text, browser.ClickOptions{Delay: delay, Timeout: r.cfg.ActionTimeout}); err != nil {
		return fmt.Errorf("click %q: %w", text, err)
	}
	return nil
}

// OpenHome loads the portal root.
func (r *Reader) OpenHome(_ context.Context) error {
	return r.navigate(r.cfg.BaseURL + "/")
}

// AcceptConsent dismisses the cookie banner.
func (r *Reader) AcceptConsent(_ context.Context) error {
	return r.click(selConsentButton, r.cfg.ClickDelay)
}

// OpenPersonOverview loads the person search page.
func (r *Reader) OpenPersonOverview(_ context.Context) error {
	return r.navigate(r.cfg.BaseURL + personOverviewPath)
}

// SelectPhysicalPerson picks the natural person search.
func (r *Reader) SelectPhysicalPerson(_ context.Context) error {
	return r.click(selPhysicalPerson, 0)
}

// TypeTerm types term key by key into the search box.
func (r *Reader) TypeTerm(_ context.Context, term string) error {
	if err := r.page.Type(selTermInput, term, browser.TypeOptions{Delay: r.cfg.TypeDelay, Timeout: r.cfg.ActionTimeout}); err != nil {
		return fmt.Errorf("type into %s: %w", selTermInput, err)
	}
	return nil
}

// OpenRefinePanel expands the refinement options.
func (r *Reader) OpenRefinePanel(_ context.Context) error {
	return r.clickText(textRefinePanel, 0)
}

// FilterOptions lists the labels of the refinement panel.
func (r *Reader) FilterOptions(_ context.Context) ([]search.FilterOption, error) {
	html, err := r.page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	return parseFilterOptions(html)
}

// SelectFilter clicks the label of opt.
func (r *Reader) SelectFilter(_ context.Context, opt search.FilterOption) error {
	return r.click(labelSelector(opt.For), 0)
}

// Submit runs the search and decodes the results summary.
func (r *Reader) Submit(_ context.Context) (search.Summary, error) {
	resp, err := r.page.AwaitResponse(r.resultURL, func() error {
		return r.click(selSubmit, 0)
	}, browser.WaitOptions{Timeout: r.cfg.ResponseTimeout})
	if err != nil {
		return search.Summary{}, fmt.Errorf("await search response: %w", err)
	}
	if resp.Status != 0 && (resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices) {
		return search.Summary{}, fmt.Errorf("search response %s: status %d", resp.URL, resp.Status)
	}
	return search.ParseSummary(resp.Body)
}

// DisplayedTerm returns the term the results page echoes back.
func (r *Reader) DisplayedTerm(_ context.Context) (string, error) {
	text, err := r.page.Locator(selDisplayedTerm).First().InnerText()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", selDisplayedTerm, err)
	}
	return strings.TrimSpace(text), nil
}

// OpenFirstResult opens the first person of the results list.
func (r *Reader) OpenFirstResult(_ context.Context) error {
	if err := r.click(selFirstResult, 0); err != nil {
		return err
	}
	if err := r.page.WaitForSelector(selMainContent, browser.WaitOptions{Timeout: r.cfg.NavigationTimeout}); err != nil {
		return fmt.Errorf("wait for %s: %w", selMainContent, err)
	}
	return nil
}

// resolve joins a site-relative href to the base URL.
func (r *Reader) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return r.base.ResolveReference(ref).String(), nil
}

func labelSelector(id string) string {
	return "label[for=" + cssString(id) + "]"
}

// cssString quotes s as a CSS string literal. Quotes and backslashes are
// escaped, control characters become hex escapes, every other rune is literal.
func cssString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == 0:
			b.WriteString("\\fffd ")
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
