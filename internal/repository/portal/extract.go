package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/transparencia/internal/browser"
	"github.com/kailas-cloud/transparencia/internal/domain"
	"github.com/kailas-cloud/transparencia/internal/domain/record"
	logpkg "github.com/kailas-cloud/transparencia/internal/logger"
)

var stripStrong = strings.NewReplacer("<strong>", "", "</strong>", "")

// ReadPerson reads name, document and location from the person panel.
func (r *Reader) ReadPerson(_ context.Context) (record.PersonSummary, error) {
	entries, err := r.page.Locator(selPersonEntries).All()
	if err != nil {
		return record.PersonSummary{}, fmt.Errorf("locate person panel: %w", err)
	}
	if len(entries) < personEntryCount {
		return record.PersonSummary{}, domain.Extractionf(
			"person panel has %d entries, want at least %d", len(entries), personEntryCount)
	}

	values := make([]string, personEntryCount)
	for i := range values {
		text, err := entries[i].Locator("span").First().InnerText()
		if err != nil {
			return record.PersonSummary{}, fmt.Errorf("read person panel entry %d: %w", i, err)
		}
		values[i] = strings.TrimSpace(text)
	}

	return record.PersonSummary{
		Name:     values[0],
		Document: values[1],
		Location: values[2],
	}, nil
}

// ExpandBenefits opens the disbursements tab and waits for its panels to settle.
func (r *Reader) ExpandBenefits(ctx context.Context) error {
	if err := r.clickText(textBenefitsTab, r.cfg.ClickDelay); err != nil {
		return err
	}
	err := r.page.WaitForLoadState(browser.LoadStateDOMContentLoaded, browser.WaitOptions{Timeout: r.cfg.NavigationTimeout})
	if err != nil {
		return fmt.Errorf("wait for benefits tab: %w", err)
	}

	if r.cfg.SettleDelay > 0 {
		return sleep(ctx, r.cfg.SettleDelay)
	}

	panels := r.page.Locator(selPanels)
	n, err := waitStable(ctx, panels.Count, r.cfg.StabilizeInterval, r.cfg.StabilizePolls, r.cfg.StabilizeTimeout)
	if err != nil {
		return fmt.Errorf("wait for benefit panels: %w", err)
	}
	logpkg.FromContext(ctx).Debug("benefit panels settled", zap.Int("panels", n))
	return nil
}

// ReadCategoryPanels reads every benefit panel with its rows and detail links.
func (r *Reader) ReadCategoryPanels(_ context.Context) ([]record.CategoryPanel, error) {
	panels, err := r.page.Locator(selPanels).All()
	if err != nil {
		return nil, fmt.Errorf("locate benefit panels: %w", err)
	}

	out := make([]record.CategoryPanel, 0, len(panels))
	for i, panel := range panels {
		name, err := panel.Locator(selPanelName).First().InnerText()
		if err != nil {
			return nil, fmt.Errorf("read panel %d name: %w", i, err)
		}

		rows, err := panel.Locator(selPanelRows).All()
		if err != nil {
			return nil, fmt.Errorf("locate panel %d rows: %w", i, err)
		}

		links := make([]record.RowLink, 0, len(rows))
		for j, row := range rows {
			link, err := readRowLink(row)
			if err != nil {
				return nil, fmt.Errorf("panel %q row %d: %w", strings.TrimSpace(name), j, err)
			}
			links = append(links, link)
		}

		out = append(out, record.CategoryPanel{Name: strings.TrimSpace(name), Rows: links})
	}
	return out, nil
}

func readRowLink(row browser.Locator) (record.RowLink, error) {
	cells, err := row.Locator(selCells).All()
	if err != nil {
		return record.RowLink{}, fmt.Errorf("locate cells: %w", err)
	}
	if len(cells) <= amountColumn {
		return record.RowLink{}, domain.Extractionf("row has %d cells, want at least %d", len(cells), amountColumn+1)
	}
	amount, err := cells[amountColumn].InnerText()
	if err != nil {
		return record.RowLink{}, fmt.Errorf("read amount: %w", err)
	}

	detail := row.GetByText(textDetailLink).First()
	n, err := detail.Count()
	if err != nil {
		return record.RowLink{}, fmt.Errorf("locate %q link: %w", textDetailLink, err)
	}
	if n == 0 {
		return record.RowLink{}, domain.Extractionf("row without %q link", textDetailLink)
	}
	href, err := detail.Attribute("href")
	if err != nil {
		return record.RowLink{}, fmt.Errorf("read %q href: %w", textDetailLink, err)
	}
	if strings.TrimSpace(href) == "" {
		return record.RowLink{}, domain.Extractionf("%q link without href", textDetailLink)
	}

	return record.RowLink{AmountReceived: strings.TrimSpace(amount), DetailHref: href}, nil
}

// ReadDetail opens href on a secondary page and reads its table.
// The secondary page is closed on every path; a failed close is only logged.
func (r *Reader) ReadDetail(ctx context.Context, href string) ([]record.DebtDetail, error) {
	target, err := r.resolve(href)
	if err != nil {
		return nil, domain.Extractionf("%v", err)
	}

	page, err := r.session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open detail page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil && !errors.Is(cerr, browser.ErrClosed) {
			logpkg.FromContext(ctx).Warn("close detail page failed",
				zap.String("url", target), zap.Error(cerr))
		}
	}()

	if err := page.Navigate(target, browser.NavigateOptions{
		WaitUntil: browser.LoadStateDOMContentLoaded,
		Timeout:   r.cfg.NavigationTimeout,
	}); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := page.WaitForSelector(selDetailTable, browser.WaitOptions{Timeout: r.cfg.NavigationTimeout}); err != nil {
		return nil, fmt.Errorf("%w: detail table not rendered at %s: %w", domain.ErrExtraction, target, err)
	}

	return readDetailTable(page)
}

func readDetailTable(page browser.Page) ([]record.DebtDetail, error) {
	rows, err := page.Locator(selDetailRows).All()
	if err != nil {
		return nil, fmt.Errorf("locate detail rows: %w", err)
	}

	out := make([]record.DebtDetail, 0, len(rows))
	for i, row := range rows {
		cells, err := row.Locator(selDetailCells).All()
		if err != nil {
			return nil, fmt.Errorf("locate detail row %d cells: %w", i, err)
		}
		detail := make(record.DebtDetail, len(cells))
		for _, cell := range cells {
			title, err := cell.Attribute(attrDetailLabel)
			if err != nil {
				return nil, fmt.Errorf("read detail row %d label: %w", i, err)
			}
			value, err := cell.InnerText()
			if err != nil {
				return nil, fmt.Errorf("read detail row %d value: %w", i, err)
			}
			detail[strings.TrimSpace(stripStrong.Replace(title))] = value
		}
		out = append(out, detail)
	}
	return out, nil
}
