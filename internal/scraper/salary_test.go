package scraper

import (
	"testing"

	"github.com/MrJJimenez/jobscout/internal/models"
)

func TestParseSalaryText(t *testing.T) {
	cases := []struct {
		value string
		want  models.Salary
	}{
		{"$120,000 - $150,000 a year", models.Salary{Min: 120000, Max: 150000, Currency: "USD", Period: models.PeriodYearly}},
		{"$45 - $60 an hour", models.Salary{Min: 45, Max: 60, Currency: "USD", Period: models.PeriodHourly}},
		{"$52.50/hr", models.Salary{Min: 52.5, Max: 52.5, Currency: "USD", Period: models.PeriodHourly}},
		{"$95K - $120K (Employer est.)", models.Salary{Min: 95000, Max: 120000, Currency: "USD", Period: models.PeriodYearly}},
		{"60.000 € - 75.000 € pro Jahr", models.Salary{Min: 60000, Max: 75000, Currency: "EUR", Period: models.PeriodYearly}},
		{"4.500 - 5.200 EUR pro Monat", models.Salary{Min: 4500, Max: 5200, Currency: "EUR", Period: models.PeriodMonthly}},
		{"£40,000 - £35,000", models.Salary{Min: 35000, Max: 40000, Currency: "GBP", Period: models.PeriodYearly}},
	}

	for _, tc := range cases {
		got := parseSalaryText(tc.value)
		if got == nil {
			t.Fatalf("expected salary for %q", tc.value)
		}
		if *got != tc.want {
			t.Fatalf("parseSalaryText(%q) = %+v, want %+v", tc.value, *got, tc.want)
		}
	}
}

func TestParseSalaryTextWithoutFigures(t *testing.T) {
	for _, value := range []string{"", "Competitive", "Gehalt anzeigen"} {
		if got := parseSalaryText(value); got != nil {
			t.Fatalf("expected nil for %q, got %+v", value, got)
		}
	}
}

func TestSalaryFromJSONLD(t *testing.T) {
	hourly := salaryFromJSONLD(map[string]any{
		"currency": "usd",
		"value":    map[string]any{"value": "55", "unitText": "HOUR"},
	})
	if hourly == nil || hourly.Min != 55 || hourly.Max != 55 || hourly.Period != models.PeriodHourly || hourly.Currency != "USD" {
		t.Fatalf("unexpected hourly salary: %+v", hourly)
	}

	monthly := salaryFromJSONLD(map[string]any{
		"currency": "EUR",
		"value":    map[string]any{"minValue": 4000.0, "unitText": "MONTH"},
	})
	if monthly == nil || monthly.Min != 4000 || monthly.Max != 4000 || monthly.Period != models.PeriodMonthly {
		t.Fatalf("unexpected monthly salary: %+v", monthly)
	}

	if got := salaryFromJSONLD(map[string]any{"currency": "USD"}); got != nil {
		t.Fatalf("expected nil without amounts, got %+v", got)
	}
	if got := salaryFromJSONLD(nil); got != nil {
		t.Fatalf("expected nil for missing salary, got %+v", got)
	}
}
