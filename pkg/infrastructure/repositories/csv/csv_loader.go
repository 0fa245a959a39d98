package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/copropiedad/ledger/pkg/domain/entities"
	"github.com/copropiedad/ledger/pkg/domain/services"
)

// Column layouts of the import files
var (
	PropertyHeader = []string{"id", "name", "category", "street", "city", "state", "zip_code", "country",
		"total_price", "agent_id", "commission_percentage", "commission_status", "bedrooms", "bathrooms",
		"square_feet", "description"}
	OwnerHeader      = []string{"id", "first_name", "last_names", "email", "phone", "national_id", "city"}
	AgentHeader      = []string{"id", "name", "email", "phone", "license"}
	AssignmentHeader = []string{"owner_id", "property_id", "share_number", "purchase_price"}
)

// Loader handles loading ledger data from CSV files. Records come back
// unvalidated beyond field parsing; ids may be empty.
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadProperties loads properties from a CSV file. Shares are left zero.
func (l *Loader) LoadProperties(filename string) ([]*entities.Property, error) {
	records, err := readRecords(filename, "properties", PropertyHeader)
	if err != nil {
		return nil, err
	}

	var properties []*entities.Property
	for i, record := range records {
		property, err := parseProperty(record)
		if err != nil {
			return nil, fmt.Errorf("properties CSV row %d: %w", i+2, err)
		}
		properties = append(properties, property)
	}
	return properties, nil
}

// LoadOwners loads owners from a CSV file
func (l *Loader) LoadOwners(filename string) ([]*entities.Owner, error) {
	records, err := readRecords(filename, "owners", OwnerHeader)
	if err != nil {
		return nil, err
	}

	var owners []*entities.Owner
	for _, record := range records {
		owners = append(owners, &entities.Owner{
			ID:         entities.OwnerID(strings.TrimSpace(record[0])),
			FirstName:  strings.TrimSpace(record[1]),
			LastNames:  strings.TrimSpace(record[2]),
			Email:      strings.TrimSpace(record[3]),
			Phone:      strings.TrimSpace(record[4]),
			NationalID: strings.TrimSpace(record[5]),
			Address:    entities.Address{City: strings.TrimSpace(record[6])},
		})
	}
	return owners, nil
}

// LoadAgents loads agents from a CSV file
func (l *Loader) LoadAgents(filename string) ([]*entities.Agent, error) {
	records, err := readRecords(filename, "agents", AgentHeader)
	if err != nil {
		return nil, err
	}

	var agents []*entities.Agent
	for _, record := range records {
		agents = append(agents, &entities.Agent{
			ID:      entities.AgentID(strings.TrimSpace(record[0])),
			Name:    strings.TrimSpace(record[1]),
			Email:   strings.TrimSpace(record[2]),
			Phone:   strings.TrimSpace(record[3]),
			License: strings.TrimSpace(record[4]),
		})
	}
	return agents, nil
}

// LoadAssignments loads share assignments from a CSV file. An empty
// purchase price is returned as -1 so callers can apply their default.
func (l *Loader) LoadAssignments(filename string) ([]entities.ShareAssignment, error) {
	records, err := readRecords(filename, "assignments", AssignmentHeader)
	if err != nil {
		return nil, err
	}

	var assignments []entities.ShareAssignment
	for i, record := range records {
		number, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("assignments CSV row %d: invalid share_number: %w", i+2, err)
		}
		price := entities.Money(-1)
		if raw := strings.TrimSpace(record[3]); raw != "" {
			if price, err = entities.ParseMoney(raw); err != nil {
				return nil, fmt.Errorf("assignments CSV row %d: invalid purchase_price: %w", i+2, err)
			}
		}
		assignments = append(assignments, entities.ShareAssignment{
			OwnerID:       entities.OwnerID(strings.TrimSpace(record[0])),
			PropertyID:    entities.PropertyID(strings.TrimSpace(record[1])),
			ShareNumber:   entities.ShareNumber(number),
			PurchasePrice: price,
		})
	}
	return assignments, nil
}

// readRecords returns the data rows of a CSV file after checking its header
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff"))) != col {
			return false
		}
	}

	return true
}

func parseProperty(record []string) (*entities.Property, error) {
	field := func(i int) string { return strings.TrimSpace(record[i]) }

	totalPrice, err := entities.ParseMoney(field(8))
	if err != nil {
		return nil, fmt.Errorf("invalid total_price: %w", err)
	}

	commission := entities.DefaultCommission()
	if raw := field(10); raw != "" {
		if commission.Percentage, err = services.ParsePercentage(raw); err != nil {
			return nil, err
		}
	}
	if raw := field(11); raw != "" {
		if commission.Status, err = entities.ParseCommissionStatus(raw); err != nil {
			return nil, err
		}
	}

	bedrooms, err := parseOptionalInt(field(12), "bedrooms")
	if err != nil {
		return nil, err
	}
	bathrooms, err := parseOptionalInt(field(13), "bathrooms")
	if err != nil {
		return nil, err
	}
	squareFeet, err := parseOptionalInt(field(14), "square_feet")
	if err != nil {
		return nil, err
	}

	return &entities.Property{
		ID:       entities.PropertyID(field(0)),
		Name:     field(1),
		Category: field(2),
		Address: entities.Address{
			Street:  field(3),
			City:    field(4),
			State:   field(5),
			ZipCode: field(6),
			Country: field(7),
		},
		TotalPrice: totalPrice,
		AgentID:    entities.AgentID(field(9)),
		Commission: commission,
		Details: entities.Details{
			Bedrooms:    bedrooms,
			Bathrooms:   bathrooms,
			SquareFeet:  squareFeet,
			Description: field(15),
		},
	}, nil
}

func parseOptionalInt(s, column string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", column, err)
	}
	return n, nil
}
