package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MrJJimenez/jobscout/internal/models"
)

var salaryNumberPattern = regexp.MustCompile(`(\d[\d.,]*)\s*([kK])?`)

var thousandsPattern = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)

// parseSalaryText reads ranges such as "$120,000 - $150,000 a year",
// "$45 - $60 an hour", "$95K (Employer est.)" or "60.000 € - 75.000 € pro Jahr".
func parseSalaryText(value string) *models.Salary {
	value = cleanText(value)
	if value == "" {
		return nil
	}
	lower := strings.ToLower(value)

	var amounts []float64
	for _, match := range salaryNumberPattern.FindAllStringSubmatch(value, -1) {
		amount, ok := parseAmount(match[1])
		if !ok {
			continue
		}
		if match[2] != "" {
			amount *= 1000
		}
		amounts = append(amounts, amount)
		if len(amounts) == 2 {
			break
		}
	}
	if len(amounts) == 0 {
		return nil
	}

	salary := &models.Salary{
		Min:      amounts[0],
		Max:      amounts[0],
		Currency: currencyOf(lower),
		Period:   periodOf(lower),
	}
	if len(amounts) == 2 {
		salary.Max = amounts[1]
		if salary.Min > salary.Max {
			salary.Min, salary.Max = salary.Max, salary.Min
		}
	}
	if salary.Max <= 0 {
		return nil
	}
	return salary
}

func parseAmount(token string) (float64, bool) {
	token = strings.TrimRight(token, ".,")
	if token == "" {
		return 0, false
	}
	switch {
	case thousandsPattern.MatchString(token):
		token = strings.NewReplacer(",", "", ".", "").Replace(token)
	case strings.Count(token, ",") == 1 && !strings.Contains(token, "."):
		token = strings.Replace(token, ",", ".", 1)
	default:
		if idx := strings.LastIndexAny(token, ".,"); idx >= 0 {
			token = strings.NewReplacer(",", "", ".", "").Replace(token[:idx]) + "." + token[idx+1:]
		}
	}
	amount, err := strconv.ParseFloat(token, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func currencyOf(lower string) string {
	switch {
	case strings.Contains(lower, "€"), strings.Contains(lower, "eur"):
		return "EUR"
	case strings.Contains(lower, "£"), strings.Contains(lower, "gbp"):
		return "GBP"
	case strings.Contains(lower, "chf"):
		return "CHF"
	case strings.Contains(lower, "$"), strings.Contains(lower, "usd"):
		return "USD"
	}
	return ""
}

func periodOf(lower string) models.SalaryPeriod {
	switch {
	case strings.Contains(lower, "hour"), strings.Contains(lower, "/hr"), strings.Contains(lower, "stunde"):
		return models.PeriodHourly
	case strings.Contains(lower, "month"), strings.Contains(lower, "/mo"), strings.Contains(lower, "monat"):
		return models.PeriodMonthly
	}
	return models.PeriodYearly
}

// salaryFromJSONLD reads a schema.org MonetaryAmount.
func salaryFromJSONLD(value any) *models.Salary {
	switch v := value.(type) {
	case map[string]any:
		inner, _ := v["value"].(map[string]any)
		if inner == nil {
			if amount, ok := numberValue(v["value"]); ok {
				inner = map[string]any{"value": amount}
			} else {
				return nil
			}
		}
		low, hasLow := numberValue(inner["minValue"])
		high, hasHigh := numberValue(inner["maxValue"])
		if single, ok := numberValue(inner["value"]); ok {
			if !hasLow {
				low, hasLow = single, true
			}
			if !hasHigh {
				high, hasHigh = single, true
			}
		}
		if !hasLow && !hasHigh {
			return nil
		}
		if !hasLow {
			low = high
		}
		if !hasHigh {
			high = low
		}
		if high <= 0 {
			return nil
		}
		unit := strings.ToLower(stringValue(inner["unitText"], v["unitText"]))
		return &models.Salary{
			Min:      low,
			Max:      high,
			Currency: strings.ToUpper(stringValue(v["currency"])),
			Period:   unitPeriod(unit),
		}
	case string:
		return parseSalaryText(v)
	}
	return nil
}

func unitPeriod(unit string) models.SalaryPeriod {
	switch unit {
	case "hour":
		return models.PeriodHourly
	case "month":
		return models.PeriodMonthly
	}
	return models.PeriodYearly
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		return parseAmount(strings.TrimSpace(v))
	}
	return 0, false
}
