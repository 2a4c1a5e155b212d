package source

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expected    int64
		expectError bool
	}{
		{
			name:     "two fractional digits",
			raw:      "4.97",
			expected: 497,
		},
		{
			name:     "one fractional digit",
			raw:      "4.9",
			expected: 490,
		},
		{
			name:     "no fraction",
			raw:      "4",
			expected: 400,
		},
		{
			name:     "zero",
			raw:      "0",
			expected: 0,
		},
		{
			name:     "cents only",
			raw:      "0.05",
			expected: 5,
		},
		{
			name:     "bare fraction",
			raw:      ".5",
			expected: 50,
		},
		{
			name:     "large amount",
			raw:      "12345.67",
			expected: 1234567,
		},
		{
			name:     "negative amount",
			raw:      "-1.25",
			expected: -125,
		},
		{
			name:        "three fractional digits",
			raw:         "4.975",
			expectError: true,
		},
		{
			name:        "empty",
			raw:         "",
			expectError: true,
		},
		{
			name:        "not a number",
			raw:         "abc",
			expectError: true,
		},
		{
			name:        "garbage fraction",
			raw:         "4.x",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, err := ParseAmountCents(tt.raw)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cents)
		})
	}
}

func TestReadTemplates(t *testing.T) {
	input := `amount,category,merchant,description,payment_method,is_recurring
4.97,misc_net,fraud_Kirlin and Sons,online purchase,debit_card,false
107.23,grocery_pos,"Sporer, Keebler and Christiansen",weekly shop,credit_card,true
`
	rng := rand.New(rand.NewSource(1))

	templates, err := readTemplates(strings.NewReader(input), 0, rng)
	require.NoError(t, err)
	require.Len(t, templates, 2)

	assert.Equal(t, Template{
		AmountCents:   497,
		Category:      "misc_net",
		Merchant:      "Kirlin and Sons", // fraud_ prefix stripped
		Description:   "online purchase",
		PaymentMethod: "debit_card",
		IsRecurring:   false,
	}, templates[0])

	assert.Equal(t, int64(10723), templates[1].AmountCents)
	assert.Equal(t, "Sporer, Keebler and Christiansen", templates[1].Merchant)
	assert.True(t, templates[1].IsRecurring)
}

func TestReadTemplatesHeaderCaseInsensitive(t *testing.T) {
	input := `Amount,Category,Merchant,Payment_Method
1.00,entertainment,Cinema,cash
`
	templates, err := readTemplates(strings.NewReader(input), 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, int64(100), templates[0].AmountCents)
}

func TestReadTemplatesMissingColumn(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "missing amount",
			input: "category,merchant,payment_method\nmisc_net,Shop,cash\n",
		},
		{
			name:  "missing payment method",
			input: "amount,category,merchant\n1.00,misc_net,Shop\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readTemplates(strings.NewReader(tt.input), 0, rand.New(rand.NewSource(1)))
			assert.Error(t, err)
		})
	}
}

func TestReadTemplatesEmpty(t *testing.T) {
	input := "amount,category,merchant,payment_method\n"
	_, err := readTemplates(strings.NewReader(input), 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestReadTemplatesInvalidRow(t *testing.T) {
	input := `amount,category,merchant,payment_method
not_a_number,misc_net,Shop,cash
`
	_, err := readTemplates(strings.NewReader(input), 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestReadTemplatesReservoirCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("amount,category,merchant,payment_method\n")
	for i := range 200 {
		fmt.Fprintf(&sb, "%d.00,misc_net,Shop %d,cash\n", i+1, i)
	}

	templates, err := readTemplates(strings.NewReader(sb.String()), 25, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	// Sample stays bounded at maxRows regardless of file size
	assert.Len(t, templates, 25)

	// Sampled rows come from the input set
	for _, tmpl := range templates {
		assert.Equal(t, "misc_net", tmpl.Category)
		assert.True(t, tmpl.AmountCents >= 100 && tmpl.AmountCents <= 20000)
	}
}

func TestReadTemplatesUnderCap(t *testing.T) {
	input := `amount,category,merchant,payment_method
1.00,misc_net,Shop A,cash
2.00,misc_net,Shop B,cash
`
	templates, err := readTemplates(strings.NewReader(input), 50, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, templates, 2)
}
