package services

import (
	"math"
	"testing"

	"ipotrack/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestCoerceNumeric(t *testing.T) {
	normalizer := NewNormalizerService()

	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{"range takes upper bound", "10.00 - 15.00", 15},
		{"currency with separators", "$1,234.50", 1234.5},
		{"empty string", "", 0},
		{"no digits", "abc", 0},
		{"plain integer", "42", 42},
		{"dollar range", "10$ - 12$", 12},
		{"reversed range", "15 - 10", 15},
		{"half-broken range", "abc - 12", 12},
		{"dash without digits", "n/a - unknown", 0},
		{"negative-looking input", "-5", 5},
		{"multiple decimal points", "10.0.5", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizer.CoerceNumeric(tc.input))
		})
	}
}

func TestCoerceNumericIsTotal(t *testing.T) {
	normalizer := NewNormalizerService()
	properties := gopter.NewProperties(nil)

	properties.Property("any input coerces to a finite non-negative number", prop.ForAll(
		func(input string) bool {
			value := normalizer.CoerceNumeric(input)
			return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestNormalizeRowFieldAliases(t *testing.T) {
	normalizer := NewNormalizerService()

	snakeCase := models.RawRow{
		"cik":                "0001234",
		"company_name":       "Acme Robotics",
		"estimated_ipo_date": "2026-09-01",
		"share_price":        "10.00 - 15.00",
		"market_cap":         "250000000",
		"exchange":           "Nasdaq Global Select",
	}
	camelCase := models.RawRow{
		"cik":              "0001234",
		"companyName":      "Acme Robotics",
		"estimatedIpoDate": "2026-09-01",
		"sharePrice":       "10.00 - 15.00",
		"marketCap":        "250000000",
		"exchange":         "Nasdaq Global Select",
	}

	fromSnake := normalizer.NormalizeRow(snakeCase)
	fromCamel := normalizer.NormalizeRow(camelCase)
	assert.Equal(t, fromSnake, fromCamel, "both upstream shapes must normalize identically")
	assert.Equal(t, "Acme Robotics", fromSnake.CompanyName)
	assert.Equal(t, models.ExchangeNASDAQ, fromSnake.Exchange)
}

func TestNormalizeRowDegradesToEmptyStrings(t *testing.T) {
	normalizer := NewNormalizerService()

	record := normalizer.NormalizeRow(models.RawRow{
		"cik":            "99",
		"company_name":   nil,
		"shares_offered": []any{"not", "a", "scalar"},
		"share_price":    true,
	})

	assert.Equal(t, "", record.CompanyName)
	assert.Equal(t, "", record.SharesOffered)
	assert.Equal(t, "", record.SharePrice)
	assert.Equal(t, 0, record.Rank)
}

func TestNormalizeRowFormatsNumbers(t *testing.T) {
	normalizer := NewNormalizerService()

	record := normalizer.NormalizeRow(models.RawRow{
		"cik":            "7",
		"shares_offered": float64(2500000),
		"market_cap":     float64(1234567.5),
	})

	assert.Equal(t, "2,500,000", record.SharesOffered)
	assert.Equal(t, "1,234,567.5", record.MarketCap)
}

func TestNormalizeRowLogoMarker(t *testing.T) {
	normalizer := NewNormalizerService()

	withLogo := normalizer.NormalizeRow(models.RawRow{"cik": "1", "logo_url": "https://cdn.example/logo.webp"})
	withoutLogo := normalizer.NormalizeRow(models.RawRow{"cik": "2"})
	nullLogo := normalizer.NormalizeRow(models.RawRow{"cik": "3", "logo_url": nil})

	assert.Equal(t, "https://cdn.example/logo.webp", withLogo.LogoURL)
	assert.Equal(t, models.NoLogoMarker, withoutLogo.LogoURL)
	assert.Equal(t, models.NoLogoMarker, nullLogo.LogoURL)
}

func TestNormalizeExchange(t *testing.T) {
	normalizer := NewNormalizerService()

	assert.Equal(t, models.ExchangeNASDAQ, normalizer.NormalizeExchange("NASDAQ Capital Market"))
	assert.Equal(t, models.ExchangeNYSE, normalizer.NormalizeExchange("nyse american"))
	assert.Equal(t, models.ExchangeOTC, normalizer.NormalizeExchange("OTCQB"))
	assert.Equal(t, models.ExchangeUnknown, normalizer.NormalizeExchange("unknown"))
	assert.Equal(t, models.ExchangeUnknown, normalizer.NormalizeExchange(""))
}

func TestNormalizeRowsSkipsRowsWithoutIdentifier(t *testing.T) {
	normalizer := NewNormalizerService()

	records := normalizer.NormalizeRows([]models.RawRow{
		{"cik": "1", "company_name": "Keep Me"},
		{"company_name": "No Identifier"},
	})

	assert.Len(t, records, 1)
	assert.Equal(t, "1", records[0].CIK)
}
