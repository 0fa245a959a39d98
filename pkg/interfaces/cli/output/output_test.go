package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/services"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
)

func sampleView(t *testing.T) *dto.PropertyView {
	t.Helper()
	ledger := services.NewShareLedger()
	shares, err := ledger.InitializeShares(entities.MustParseMoney("100.01"))
	require.NoError(t, err)
	shares[1].Status = entities.ShareSold

	property := &entities.Property{
		ID:         "prop-1",
		Name:       "Villa <Mar>",
		Category:   "villa",
		TotalPrice: entities.MustParseMoney("100.01"),
		AgentID:    "agent-1",
		Commission: entities.Commission{Percentage: decimal.NewFromInt(3), Status: entities.CommissionPending},
		Shares:     shares,
	}
	view := &dto.PropertyView{
		Property:         property,
		Status:           ledger.ComputePropertyStatus(shares),
		AgentName:        "Ana Agent",
		CommissionAmount: entities.MustParseMoney("3.00"),
	}
	for _, s := range shares {
		sv := dto.ShareView{Number: s.Number, Period: s.Period(), Status: s.Status, Price: s.Price}
		if s.Number == 2 {
			sv.OwnerID = "owner-1"
			sv.OwnerName = "Olga Owner"
		}
		view.Shares = append(view.Shares, sv)
	}
	return view
}

func TestConfigValidate(t *testing.T) {
	for _, format := range []string{FormatText, FormatJSON, FormatCSV} {
		assert.NoError(t, Config{Format: format}.Validate(), format)
	}
	assert.Error(t, Config{Format: "xml"}.Validate())
}

func TestPropertiesText(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Config{Format: FormatText, Currency: "EUR"})

	require.NoError(t, r.Properties([]*dto.PropertyView{sampleView(t)}))

	out := buf.String()
	assert.Contains(t, out, "prop-1")
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "100.01 EUR")
	assert.Contains(t, out, "3/0/1")
	assert.Contains(t, out, "1 properties")
}

func TestPropertiesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Config{}).Properties(nil))
	assert.Equal(t, "No properties found\n", buf.String())
}

func TestPropertyJSON(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, Config{Format: FormatJSON})

	require.NoError(t, r.Property(sampleView(t)))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "available", decoded["status"])
	details := decoded["share_details"].([]interface{})
	require.Len(t, details, 4)
	second := details[1].(map[string]interface{})
	assert.Equal(t, "sold", second["status"])
	assert.Equal(t, "2nd half of July", second["period"])
	assert.Equal(t, "Olga Owner", second["owner_name"])
	last := details[3].(map[string]interface{})
	assert.Equal(t, "25.01", last["price"])
}

func TestPropertyText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Config{Currency: "€"}).Property(sampleView(t)))

	out := buf.String()
	assert.Contains(t, out, "Villa <Mar> (prop-1)")
	assert.Contains(t, out, "Ana Agent")
	assert.Contains(t, out, "3.00% pending (3.00 €)")
	assert.Contains(t, out, "1st half of August")
	assert.Contains(t, out, "Olga Owner")
}

func TestPropertiesCSVRoundTripsImportLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Config{Format: FormatCSV}).Properties([]*dto.PropertyView{sampleView(t)}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,name,category"))
	assert.True(t, strings.HasPrefix(lines[1], "prop-1,Villa <Mar>,villa"))
}

func TestCommissionsText(t *testing.T) {
	report := &dto.CommissionReport{
		Lines: []dto.CommissionLine{{
			PropertyID:   "prop-1",
			PropertyName: "Villa",
			AgentID:      "agent-1",
			AgentName:    "Ana Agent",
			TotalPrice:   entities.MustParseMoney("1000"),
			Commission:   entities.Commission{Percentage: decimal.RequireFromString("2.5"), Status: entities.CommissionPaid},
			Amount:       entities.MustParseMoney("25"),
		}},
		TotalPaid: entities.MustParseMoney("25"),
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Config{}).Commissions(report))

	out := buf.String()
	assert.Contains(t, out, "2.50%")
	assert.Contains(t, out, "Pending: 0.00")
	assert.Contains(t, out, "Paid:    25.00")
}

func TestSummaryCSV(t *testing.T) {
	summary := &dto.PortfolioSummary{
		PortfolioStats: services.PortfolioStats{
			TotalProperties:    2,
			TotalValue:         entities.MustParseMoney("300"),
			PropertiesByStatus: map[string]int{"available": 1, "sold": 1, "reserved": 0},
		},
		Owners: 3,
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Config{Format: FormatCSV}).Summary(summary))

	out := buf.String()
	assert.Contains(t, out, "metric,value\n")
	assert.Contains(t, out, "properties,2\n")
	assert.Contains(t, out, "total_value,300.00\n")
	assert.Contains(t, out, "properties_sold,1\n")
	assert.Contains(t, out, "owners,3\n")
}

func TestEventsText(t *testing.T) {
	history := []events.Event{
		events.BaseEvent{EventType: events.PropertyCreatedEvent, Stream: "prop-1", EventVersion: 1, EventTime: time.Now()},
		events.BaseEvent{EventType: events.ShareStatusChangedEvent, Stream: "prop-1", EventVersion: 2, EventTime: time.Now()},
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, Config{}).Events(history))

	out := buf.String()
	assert.Contains(t, out, events.PropertyCreatedEvent)
	assert.Contains(t, out, events.ShareStatusChangedEvent)
}

func TestMessageJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, Config{Format: FormatJSON}).Message("deleted %s", "prop-1"))
	assert.JSONEq(t, `{"message":"deleted prop-1"}`, buf.String())
}

func TestShareCalendar(t *testing.T) {
	view := sampleView(t)
	calendar := NewShareCalendar(1)

	cells := calendar.Cells([]*dto.PropertyView{view})
	require.Len(t, cells, 4)
	for i := 1; i < len(cells); i++ {
		assert.Greater(t, cells[i].X, cells[i-1].X, "periods run left to right")
	}
	assert.Equal(t, statusColor(entities.ShareSold), cells[1].Color)

	svg := calendar.GenerateSVG([]*dto.PropertyView{view})
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "1st half of July")
	assert.Contains(t, svg, "Olga Owner")
	assert.Contains(t, svg, "Villa &lt;Mar&gt;")
	assert.NotContains(t, svg, "Villa <Mar>")
}

func TestShareCalendarEmpty(t *testing.T) {
	svg := NewShareCalendar(0).GenerateSVG(nil)
	assert.Contains(t, svg, "No Properties Found")
}

func TestHTMLReport(t *testing.T) {
	view := sampleView(t)
	report := NewHTMLReport("EUR")
	report.now = func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }

	html, err := report.GenerateHTML(&ReportData{
		Summary: &dto.PortfolioSummary{PortfolioStats: services.PortfolioStats{
			TotalProperties:    1,
			TotalValue:         view.Property.TotalPrice,
			PropertiesByStatus: map[string]int{"available": 1},
		}},
		Properties:  []*dto.PropertyView{view},
		Commissions: &dto.CommissionReport{},
	})
	require.NoError(t, err)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "100.01 EUR")
	assert.Contains(t, html, "Villa &lt;Mar&gt;")
	assert.Contains(t, html, "<svg")
	assert.Contains(t, html, "No properties with an agent")
	assert.Contains(t, html, "Generated 2026-07-01 12:00:00")
}
