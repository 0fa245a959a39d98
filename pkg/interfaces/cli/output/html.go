package output

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/copropiedad/ledger/pkg/application/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTMLReport renders a self-contained portfolio report: summary figures,
// the share calendar and the commission table.
type HTMLReport struct {
	Currency string
	now      func() time.Time
}

// ReportData is the input to the report template
type ReportData struct {
	Summary     *dto.PortfolioSummary
	Properties  []*dto.PropertyView
	Commissions *dto.CommissionReport
}

// TemplateData contains all data for rendering the HTML template
type TemplateData struct {
	*ReportData
	Currency    string
	Calendar    template.HTML
	DataJSON    template.JS
	GeneratedAt string
}

// NewHTMLReport creates a new HTML report generator
func NewHTMLReport(currency string) *HTMLReport {
	return &HTMLReport{Currency: currency, now: time.Now}
}

// GenerateHTML renders data into an HTML document
func (hr *HTMLReport) GenerateHTML(data *ReportData) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report data: %w", err)
	}

	calendar := NewShareCalendar(len(data.Properties)).GenerateSVG(data.Properties)
	templateData := &TemplateData{
		ReportData:  data,
		Currency:    hr.Currency,
		Calendar:    template.HTML(calendar),
		DataJSON:    template.JS(jsonData),
		GeneratedAt: hr.now().Format("2006-01-02 15:04:05"),
	}

	tmpl, err := template.New("report.html").Funcs(template.FuncMap{
		"money": func(m interface{ Format(string) string }) string { return m.Format(hr.Currency) },
	}).ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
