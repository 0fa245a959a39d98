package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/copropiedad/ledger/pkg/application/dto"
	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/infrastructure/events"
	csvrepo "github.com/copropiedad/ledger/pkg/infrastructure/repositories/csv"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config holds configuration for output generation
type Config struct {
	Format   string
	Currency string
}

// Validate checks that the format is one the renderer knows
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatCSV:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (expected: text, json, csv)", c.Format)
	}
}

// Renderer writes command results to w in the configured format
type Renderer struct {
	w      io.Writer
	config Config
}

// New creates a renderer on w
func New(w io.Writer, config Config) *Renderer {
	if config.Format == "" {
		config.Format = FormatText
	}
	return &Renderer{w: w, config: config}
}

// Create opens path for writing, creating parent directories as needed
func Create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func (r *Renderer) money(m entities.Money) string {
	return m.Format(r.config.Currency)
}

func (r *Renderer) json(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(r.w, string(data))
	return err
}

func (r *Renderer) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.w, format, args...)
}

// Properties renders a property listing
func (r *Renderer) Properties(views []*dto.PropertyView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(views)
	case FormatCSV:
		properties := make([]*entities.Property, 0, len(views))
		for _, v := range views {
			properties = append(properties, v.Property)
		}
		return csvrepo.NewWriter(r.w).WriteProperties(properties)
	}

	if len(views) == 0 {
		r.printf("No properties found\n")
		return nil
	}
	r.printf("%-38s %-24s %-12s %-10s %16s %s\n", "ID", "Name", "Category", "Status", "Total Price", "Shares (A/R/S)")
	r.printf("%-38s %-24s %-12s %-10s %16s %s\n",
		strings.Repeat("-", 38), strings.Repeat("-", 24), strings.Repeat("-", 12),
		strings.Repeat("-", 10), strings.Repeat("-", 16), strings.Repeat("-", 14))
	for _, v := range views {
		p := v.Property
		r.printf("%-38s %-24s %-12s %-10s %16s %d/%d/%d\n",
			p.ID, truncate(p.Name, 24), truncate(p.Category, 12), v.Status, r.money(p.TotalPrice),
			p.Shares.CountByStatus(entities.ShareAvailable),
			p.Shares.CountByStatus(entities.ShareReserved),
			p.Shares.CountByStatus(entities.ShareSold))
	}
	r.printf("\n%d properties\n", len(views))
	return nil
}

// Property renders one property with its shares
func (r *Renderer) Property(v *dto.PropertyView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(v)
	case FormatCSV:
		rows := [][]string{{"share_number", "period", "status", "price", "owner_id", "owner_name"}}
		for _, s := range v.Shares {
			rows = append(rows, []string{s.Number.String(), s.Period, s.Status.String(), s.Price.String(), string(s.OwnerID), s.OwnerName})
		}
		return csvrepo.NewWriter(r.w).WriteRows(rows)
	}

	p := v.Property
	r.printf("🏠 %s (%s)\n", p.Name, p.ID)
	r.printf("================================\n\n")
	r.printf("Status:      %s\n", v.Status)
	if p.Category != "" {
		r.printf("Category:    %s\n", p.Category)
	}
	if addr := formatAddress(p.Address); addr != "" {
		r.printf("Address:     %s\n", addr)
	}
	r.printf("Total Price: %s\n", r.money(p.TotalPrice))
	if p.HasAgent() {
		name := v.AgentName
		if name == "" {
			name = string(p.AgentID)
		}
		r.printf("Agent:       %s\n", name)
		r.printf("Commission:  %s%% %s (%s)\n", p.Commission.Percentage.StringFixed(2), p.Commission.Status, r.money(v.CommissionAmount))
	}
	r.printf("\n%-6s %-20s %-10s %16s %s\n", "Share", "Period", "Status", "Price", "Owner")
	r.printf("%-6s %-20s %-10s %16s %s\n", "------", strings.Repeat("-", 20), strings.Repeat("-", 10), strings.Repeat("-", 16), "-----")
	for _, s := range v.Shares {
		r.printf("%-6d %-20s %-10s %16s %s\n", s.Number, s.Period, s.Status, r.money(s.Price), s.OwnerName)
	}
	return nil
}

// Owners renders an owner listing
func (r *Renderer) Owners(views []*dto.OwnerView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(views)
	case FormatCSV:
		owners := make([]*entities.Owner, 0, len(views))
		for _, v := range views {
			owners = append(owners, v.Owner)
		}
		return csvrepo.NewWriter(r.w).WriteOwners(owners)
	}

	if len(views) == 0 {
		r.printf("No owners found\n")
		return nil
	}
	r.printf("%-38s %-28s %-30s %s\n", "ID", "Name", "Email", "Shares")
	r.printf("%-38s %-28s %-30s %s\n", strings.Repeat("-", 38), strings.Repeat("-", 28), strings.Repeat("-", 30), "------")
	for _, v := range views {
		r.printf("%-38s %-28s %-30s %d\n", v.Owner.ID, truncate(v.Owner.FullName(), 28), truncate(v.Owner.Email, 30), len(v.Shares))
	}
	return nil
}

// Owner renders one owner with the shares they hold
func (r *Renderer) Owner(v *dto.OwnerView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(v)
	case FormatCSV:
		assignments := make([]entities.ShareAssignment, 0, len(v.Shares))
		for _, s := range v.Shares {
			assignments = append(assignments, s.Assignment)
		}
		return csvrepo.NewWriter(r.w).WriteAssignments(assignments)
	}

	o := v.Owner
	r.printf("👤 %s (%s)\n", o.FullName(), o.ID)
	r.printf("Email: %s\n", o.Email)
	if o.Phone != "" {
		r.printf("Phone: %s\n", o.Phone)
	}
	if len(v.Shares) == 0 {
		r.printf("\nNo shares held\n")
		return nil
	}
	r.printf("\n%-24s %-6s %-20s %16s\n", "Property", "Share", "Period", "Purchase Price")
	for _, s := range v.Shares {
		r.printf("%-24s %-6d %-20s %16s\n", truncate(s.PropertyName, 24), s.Assignment.ShareNumber, s.Period, r.money(s.Assignment.PurchasePrice))
	}
	return nil
}

// Agents renders an agent listing
func (r *Renderer) Agents(views []*dto.AgentView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(views)
	case FormatCSV:
		agents := make([]*entities.Agent, 0, len(views))
		for _, v := range views {
			agents = append(agents, v.Agent)
		}
		return csvrepo.NewWriter(r.w).WriteAgents(agents)
	}

	if len(views) == 0 {
		r.printf("No agents found\n")
		return nil
	}
	r.printf("%-38s %-24s %-30s %s\n", "ID", "Name", "Email", "Properties")
	r.printf("%-38s %-24s %-30s %s\n", strings.Repeat("-", 38), strings.Repeat("-", 24), strings.Repeat("-", 30), "----------")
	for _, v := range views {
		r.printf("%-38s %-24s %-30s %d\n", v.Agent.ID, truncate(v.Agent.Name, 24), truncate(v.Agent.Email, 30), v.Properties)
	}
	return nil
}

// Agent renders one agent
func (r *Renderer) Agent(v *dto.AgentView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(v)
	case FormatCSV:
		return csvrepo.NewWriter(r.w).WriteAgents([]*entities.Agent{v.Agent})
	}

	a := v.Agent
	r.printf("🧑‍💼 %s (%s)\n", a.Name, a.ID)
	r.printf("Email:      %s\n", a.Email)
	if a.Phone != "" {
		r.printf("Phone:      %s\n", a.Phone)
	}
	if a.License != "" {
		r.printf("License:    %s\n", a.License)
	}
	r.printf("Properties: %d\n", v.Properties)
	return nil
}

// Invoices renders an invoice listing with totals by payment status
func (r *Renderer) Invoices(views []*dto.InvoiceView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(views)
	case FormatCSV:
		invoices := make([]*entities.Invoice, 0, len(views))
		for _, v := range views {
			invoices = append(invoices, v.Invoice)
		}
		return csvrepo.NewWriter(r.w).WriteInvoices(invoices)
	}

	if len(views) == 0 {
		r.printf("No invoices found\n")
		return nil
	}
	r.printf("%-22s %-10s %-7s %-20s %-20s %-19s %14s %-8s %s\n",
		"Number", "Date", "Period", "Owner", "Property", "Type", "Amount", "Bank", "Payment")
	r.printf("%-22s %-10s %-7s %-20s %-20s %-19s %14s %-8s %s\n",
		strings.Repeat("-", 22), strings.Repeat("-", 10), strings.Repeat("-", 7), strings.Repeat("-", 20),
		strings.Repeat("-", 20), strings.Repeat("-", 19), strings.Repeat("-", 14), "--------", "-------")

	var paid, pending entities.Money
	for _, v := range views {
		inv := v.Invoice
		r.printf("%-22s %-10s %-7s %-20s %-20s %-19s %14s %-8s %s\n",
			truncate(inv.Number, 22), inv.Date.Format("2006-01-02"), inv.Period, truncate(v.OwnerName, 20),
			truncate(v.PropertyName, 20), inv.Type, r.money(inv.Amount), inv.BankStatus, inv.PaymentStatus)
		if inv.Settled() {
			paid += inv.Amount
		} else {
			pending += inv.Amount
		}
	}
	r.printf("\n%d invoices\n", len(views))
	r.printf("Paid:        %s\n", r.money(paid))
	r.printf("Outstanding: %s\n", r.money(pending))
	return nil
}

// Invoice renders one invoice
func (r *Renderer) Invoice(v *dto.InvoiceView) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(v)
	case FormatCSV:
		return csvrepo.NewWriter(r.w).WriteInvoices([]*entities.Invoice{v.Invoice})
	}

	inv := v.Invoice
	r.printf("🧾 Invoice %s (%s)\n", inv.Number, inv.ID)
	r.printf("Owner:    %s (%s)\n", v.OwnerName, inv.OwnerID)
	r.printf("Property: %s (%s)\n", v.PropertyName, inv.PropertyID)
	r.printf("Date:     %s\n", inv.Date.Format("2006-01-02"))
	r.printf("Period:   %s\n", inv.Period)
	r.printf("Type:     %s\n", inv.Type)
	r.printf("Amount:   %s\n", r.money(inv.Amount))
	r.printf("Bank:     %s\n", inv.BankStatus)
	r.printf("Payment:  %s\n", inv.PaymentStatus)
	if inv.Notes != "" {
		r.printf("Notes:    %s\n", inv.Notes)
	}
	return nil
}

// Commissions renders a commission report
func (r *Renderer) Commissions(report *dto.CommissionReport) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(report)
	case FormatCSV:
		rows := [][]string{{"property_id", "property_name", "agent_id", "agent_name", "total_price", "percentage", "status", "amount"}}
		for _, l := range report.Lines {
			rows = append(rows, []string{
				string(l.PropertyID), l.PropertyName, string(l.AgentID), l.AgentName,
				l.TotalPrice.String(), l.Commission.Percentage.StringFixed(2), l.Commission.Status.String(), l.Amount.String(),
			})
		}
		return csvrepo.NewWriter(r.w).WriteRows(rows)
	}

	r.printf("💶 Commissions\n")
	r.printf("==============\n\n")
	if len(report.Lines) == 0 {
		r.printf("No properties with an agent\n")
		return nil
	}
	r.printf("%-24s %-20s %16s %8s %-8s %14s\n", "Property", "Agent", "Total Price", "Pct", "Status", "Amount")
	r.printf("%-24s %-20s %16s %8s %-8s %14s\n", strings.Repeat("-", 24), strings.Repeat("-", 20),
		strings.Repeat("-", 16), "--------", "--------", strings.Repeat("-", 14))
	for _, l := range report.Lines {
		r.printf("%-24s %-20s %16s %7s%% %-8s %14s\n",
			truncate(l.PropertyName, 24), truncate(l.AgentName, 20), r.money(l.TotalPrice),
			l.Commission.Percentage.StringFixed(2), l.Commission.Status, r.money(l.Amount))
	}
	r.printf("\nPending: %s\n", r.money(report.TotalPending))
	r.printf("Paid:    %s\n", r.money(report.TotalPaid))
	return nil
}

// Summary renders portfolio statistics
func (r *Renderer) Summary(summary *dto.PortfolioSummary) error {
	rows := [][]string{
		{"properties", fmt.Sprint(summary.TotalProperties)},
		{"total_value", summary.TotalValue.String()},
		{"sold_value", summary.SoldValue.String()},
		{"available_shares", fmt.Sprint(summary.AvailableShares)},
		{"reserved_shares", fmt.Sprint(summary.ReservedShares)},
		{"sold_shares", fmt.Sprint(summary.SoldShares)},
		{"pending_commissions", summary.PendingCommissions.String()},
		{"paid_commissions", summary.PaidCommissions.String()},
		{"owners", fmt.Sprint(summary.Owners)},
		{"agents", fmt.Sprint(summary.Agents)},
		{"assignments", fmt.Sprint(summary.Assignments)},
	}
	for _, status := range sortedKeys(summary.PropertiesByStatus) {
		rows = append(rows, []string{"properties_" + status, fmt.Sprint(summary.PropertiesByStatus[status])})
	}

	switch r.config.Format {
	case FormatJSON:
		return r.json(summary)
	case FormatCSV:
		return csvrepo.NewWriter(r.w).WriteRows(append([][]string{{"metric", "value"}}, rows...))
	}

	r.printf("📊 Portfolio Summary\n")
	r.printf("====================\n\n")
	r.printf("Properties:          %d\n", summary.TotalProperties)
	for _, status := range sortedKeys(summary.PropertiesByStatus) {
		r.printf("  %-18s %d\n", status+":", summary.PropertiesByStatus[status])
	}
	r.printf("Total Value:         %s\n", r.money(summary.TotalValue))
	r.printf("Sold Value:          %s\n", r.money(summary.SoldValue))
	r.printf("Shares (A/R/S):      %d/%d/%d\n", summary.AvailableShares, summary.ReservedShares, summary.SoldShares)
	r.printf("Pending Commissions: %s\n", r.money(summary.PendingCommissions))
	r.printf("Paid Commissions:    %s\n", r.money(summary.PaidCommissions))
	r.printf("Owners:              %d\n", summary.Owners)
	r.printf("Agents:              %d\n", summary.Agents)
	r.printf("Assignments:         %d\n", summary.Assignments)
	return nil
}

// Events renders a property history
func (r *Renderer) Events(history []events.Event) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(history)
	case FormatCSV:
		rows := [][]string{{"version", "timestamp", "type", "stream_id", "data"}}
		for _, e := range history {
			data, err := json.Marshal(e.Data())
			if err != nil {
				return fmt.Errorf("failed to marshal event data: %w", err)
			}
			rows = append(rows, []string{fmt.Sprint(e.Version()), e.Timestamp().UTC().Format("2006-01-02T15:04:05Z"), e.Type(), e.StreamID(), string(data)})
		}
		return csvrepo.NewWriter(r.w).WriteRows(rows)
	}

	if len(history) == 0 {
		r.printf("No events recorded\n")
		return nil
	}
	r.printf("%-8s %-20s %s\n", "Version", "Timestamp", "Event")
	r.printf("%-8s %-20s %s\n", "--------", strings.Repeat("-", 20), strings.Repeat("-", 28))
	for _, e := range history {
		r.printf("%-8d %-20s %s\n", e.Version(), e.Timestamp().Local().Format("2006-01-02 15:04:05"), e.Type())
	}
	return nil
}

// Assignment renders a single share assignment
func (r *Renderer) Assignment(a *entities.ShareAssignment) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(a)
	case FormatCSV:
		return csvrepo.NewWriter(r.w).WriteAssignments([]entities.ShareAssignment{*a})
	}
	r.printf("✅ Owner %s holds share %d (%s) of %s for %s\n",
		a.OwnerID, a.ShareNumber, a.ShareNumber.Period(), a.PropertyID, r.money(a.PurchasePrice))
	return nil
}

// ImportResult renders import counts
func (r *Renderer) ImportResult(result *dto.ImportResult) error {
	switch r.config.Format {
	case FormatJSON:
		return r.json(result)
	case FormatCSV:
		return csvrepo.NewWriter(r.w).WriteRows([][]string{
			{"agents", "owners", "properties", "assignments"},
			{fmt.Sprint(result.Agents), fmt.Sprint(result.Owners), fmt.Sprint(result.Properties), fmt.Sprint(result.Assignments)},
		})
	}
	r.printf("✅ Import complete:\n")
	r.printf("  Agents:      %d\n", result.Agents)
	r.printf("  Owners:      %d\n", result.Owners)
	r.printf("  Properties:  %d\n", result.Properties)
	r.printf("  Assignments: %d\n", result.Assignments)
	return nil
}

// Message prints a confirmation line in text mode and a status object otherwise
func (r *Renderer) Message(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch r.config.Format {
	case FormatJSON:
		return r.json(map[string]string{"message": msg})
	case FormatCSV:
		return csvrepo.NewWriter(r.w).WriteRows([][]string{{"message"}, {msg}})
	}
	r.printf("%s\n", msg)
	return nil
}

func formatAddress(a entities.Address) string {
	var parts []string
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
