package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/paystream/payment-analytics/internal/domain"
)

// Template is one CSV row ready for replay. Templates carry everything except
// the per-event identity (ID, timestamp), which the producer stamps at publish
// time.
type Template struct {
	AmountCents   int64
	Category      string
	Merchant      string
	Description   string
	PaymentMethod string
	IsRecurring   bool
}

// CSV column names
const (
	columnAmount        = "amount"
	columnCategory      = "category"
	columnMerchant      = "merchant"
	columnDescription   = "description"
	columnPaymentMethod = "payment_method"
	columnIsRecurring   = "is_recurring"
)

// LoadTemplates reads transaction templates from a CSV file. When the file
// holds more than maxRows rows, reservoir sampling keeps a uniform sample of
// maxRows so memory stays bounded regardless of file size.
func LoadTemplates(path string, maxRows int, rng *rand.Rand) ([]Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file: %w", err)
	}
	defer f.Close()

	return readTemplates(f, maxRows, rng)
}

// readTemplates parses and samples templates from r
func readTemplates(r io.Reader, maxRows int, rng *rand.Rand) ([]Template, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{columnAmount, columnCategory, columnMerchant, columnPaymentMethod} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("transactions file is missing column %q", required)
		}
	}

	var templates []Template
	seen := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", seen+1, err)
		}

		tmpl, err := parseTemplate(record, columns)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", seen+1, err)
		}

		if maxRows <= 0 || len(templates) < maxRows {
			templates = append(templates, tmpl)
		} else {
			// Reservoir sampling: keep each of the first n rows with probability maxRows/n
			if j := rng.Intn(seen + 1); j < maxRows {
				templates[j] = tmpl
			}
		}
		seen++
	}

	if len(templates) == 0 {
		return nil, fmt.Errorf("transactions file holds no rows")
	}

	return templates, nil
}

// parseTemplate converts one CSV record into a Template
func parseTemplate(record []string, columns map[string]int) (Template, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	amountCents, err := ParseAmountCents(field(columnAmount))
	if err != nil {
		return Template{}, err
	}

	isRecurring := false
	if raw := field(columnIsRecurring); raw != "" {
		isRecurring, err = strconv.ParseBool(raw)
		if err != nil {
			return Template{}, fmt.Errorf("invalid is_recurring value %q: %w", raw, err)
		}
	}

	return Template{
		AmountCents:   amountCents,
		Category:      field(columnCategory),
		Merchant:      domain.CleanMerchant(field(columnMerchant)),
		Description:   field(columnDescription),
		PaymentMethod: field(columnPaymentMethod),
		IsRecurring:   isRecurring,
	}, nil
}

// ParseAmountCents converts a decimal amount string like "4.97" to integer
// cents without a float round-trip. At most two fractional digits are
// accepted; "4.9" parses as 490 cents.
func ParseAmountCents(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	negative := false
	s := raw
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	var centsPart int64
	switch len(frac) {
	case 0:
	case 1:
		centsPart, err = strconv.ParseInt(frac, 10, 64)
		centsPart *= 10
	case 2:
		centsPart, err = strconv.ParseInt(frac, 10, 64)
	default:
		return 0, fmt.Errorf("invalid amount %q: more than two fractional digits", raw)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	cents := dollars*100 + centsPart
	if negative {
		cents = -cents
	}
	return cents, nil
}
