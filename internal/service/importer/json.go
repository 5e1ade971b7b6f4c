package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

// parseJSON accepts an array of objects. Objects with a "platform" field are
// flat records; objects keyed by platform name (plus hours/km) are whole days
// and go through the allocation policy like positional rows.
func parseJSON(data []byte, opts Options) (ParseResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ParseResult{}, fmt.Errorf("%w: expected a JSON array", ErrMalformedInput)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return ParseResult{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	var result ParseResult
	for i, item := range items {
		lineNo := i + 1
		raw := compact(item)

		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			result.reject(lineNo, models.ReasonMalformed, raw)
			continue
		}

		fields := make(map[string]any, len(obj))
		for k, v := range obj {
			fields[strings.ToLower(strings.TrimSpace(k))] = v
		}

		if platform, ok := fields["platform"]; ok {
			parseFlatRecord(&result, lineNo, raw, platform, fields, opts)
			continue
		}

		if !hasPlatformColumns(fields, opts.Layout) {
			result.reject(lineNo, models.ReasonMissingField, raw)
			continue
		}

		row := dayRow{
			Hours: numberValue(fields["hours"], opts.Locale),
			Km:    numberValue(fields["km"], opts.Locale),
		}
		for _, name := range opts.Layout.Platforms() {
			row.Amounts = append(row.Amounts, platformAmount{
				Platform: name,
				Earnings: numberValue(fields[strings.ToLower(name)], opts.Locale),
			})
		}
		acceptDay(&result, lineNo, raw, stringValue(fields["date"]), row, opts)
	}

	return result, nil
}

func parseFlatRecord(result *ParseResult, lineNo int, raw string, platform any, fields map[string]any, opts Options) {
	date, ok := opts.Locale.NormalizeDate(stringValue(fields["date"]))
	if !ok {
		result.reject(lineNo, models.ReasonInvalidDate, raw)
		return
	}

	name := strings.TrimSpace(stringValue(platform))
	if name == "" {
		result.reject(lineNo, models.ReasonMissingField, raw)
		return
	}

	record := models.ShiftRecord{
		Date:     date,
		Platform: name,
		Earnings: numberValue(fields["earnings"], opts.Locale),
		Hours:    numberValue(fields["hours"], opts.Locale),
		Km:       numberValue(fields["km"], opts.Locale),
		Type:     models.RecordIncome,
	}
	if strings.EqualFold(stringValue(fields["type"]), string(models.RecordStats)) {
		record.Type = models.RecordStats
	}

	if reason := checkValues(record.Earnings, record.Hours, record.Km); reason != "" {
		result.reject(lineNo, reason, raw)
		return
	}
	if record.Earnings == 0 && record.Hours == 0 && record.Km == 0 {
		result.reject(lineNo, models.ReasonEmptyDay, raw)
		return
	}

	result.accept(lineNo, []models.ShiftRecord{record})
}

func hasPlatformColumns(fields map[string]any, layout Layout) bool {
	for _, name := range layout.Platforms() {
		if _, ok := fields[strings.ToLower(name)]; ok {
			return true
		}
	}
	return false
}

func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

// numberValue coerces a JSON value to a number. Strings use the locale
// rules; anything else that is not a number is 0.
func numberValue(v any, locale Locale) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case string:
		return locale.ParseNumber(value)
	default:
		return 0
	}
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
