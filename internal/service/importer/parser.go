package importer

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/mamadbah2/driverledger/internal/config"
	"github.com/mamadbah2/driverledger/internal/domain/models"
)

// Format names the shape of the raw input.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatRows Format = "rows"
)

// Input is the raw payload of an import. Data carries text or JSON bytes;
// Rows carries pre-split cells from a spreadsheet source.
type Input struct {
	Format Format
	Data   []byte
	Rows   [][]string
}

// Options configure a parse run.
type Options struct {
	Locale      Locale
	Delimiter   Delimiter
	Layout      Layout
	Policy      Policy
	Placeholder string
	SkipHeader  bool
}

// DefaultOptions returns the importer defaults.
func DefaultOptions() Options {
	return Options{
		Locale:      DefaultLocale,
		Delimiter:   DelimiterAuto,
		Layout:      DefaultLayout,
		Policy:      PolicyProportional,
		Placeholder: models.PlatformOtros,
		SkipHeader:  true,
	}
}

// OptionsFromConfig builds the defaults from environment configuration.
func OptionsFromConfig(cfg config.ImportConfig) (Options, error) {
	opts := DefaultOptions()

	layout, err := ParseLayout(cfg.Layout)
	if err != nil {
		return Options{}, err
	}
	opts.Layout = layout

	if opts.Policy, err = ParsePolicy(cfg.Policy); err != nil {
		return Options{}, err
	}
	if opts.Delimiter, err = ParseDelimiter(cfg.Delimiter); err != nil {
		return Options{}, err
	}

	switch order := DateOrder(strings.ToUpper(cfg.DateOrder)); order {
	case DayMonthYear, MonthDayYear:
		opts.Locale.DateOrder = order
	case "":
	default:
		return Options{}, fmt.Errorf("%w: unknown date order %q", ErrInvalidOptions, cfg.DateOrder)
	}

	if r := []rune(cfg.ThousandsSeparator); len(r) == 1 {
		opts.Locale.ThousandsSeparator = r[0]
	}
	if r := []rune(cfg.DecimalSeparator); len(r) == 1 {
		opts.Locale.DecimalSeparator = r[0]
	}
	if cfg.Placeholder != "" {
		opts.Placeholder = cfg.Placeholder
	}

	return opts, nil
}

func (o Options) validate() error {
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if _, err := ParsePolicy(string(o.Policy)); err != nil {
		return err
	}
	if _, err := ParseDelimiter(string(o.Delimiter)); err != nil {
		return err
	}
	if o.Locale.ThousandsSeparator == o.Locale.DecimalSeparator {
		return fmt.Errorf("%w: thousands and decimal separators must differ", ErrInvalidOptions)
	}
	if strings.TrimSpace(o.Placeholder) == "" {
		return fmt.Errorf("%w: placeholder platform must not be empty", ErrInvalidOptions)
	}
	return nil
}

// ParseResult holds the outcome of parsing. Sources[i] is the input line of
// Records[i].
type ParseResult struct {
	Records  []models.ShiftRecord
	Sources  []int
	Rejected []models.RejectedLine
	Entries  []models.LogEntry
}

func (r *ParseResult) accept(line int, records []models.ShiftRecord) {
	if len(records) == 0 {
		r.skip(line, "no records")
		return
	}
	for _, rec := range records {
		r.Records = append(r.Records, rec)
		r.Sources = append(r.Sources, line)
	}

	detail := records[0].Date
	platforms := make([]string, len(records))
	for i, rec := range records {
		platforms[i] = rec.Platform
	}
	detail += " " + strings.Join(platforms, ", ")

	r.Entries = append(r.Entries, models.LogEntry{
		Line:    line,
		Status:  models.LogAccepted,
		Detail:  detail,
		Records: len(records),
	})
}

func (r *ParseResult) reject(line int, reason, raw string) {
	r.Rejected = append(r.Rejected, models.RejectedLine{Line: line, Reason: reason, Raw: raw})
	r.Entries = append(r.Entries, models.LogEntry{Line: line, Status: models.LogRejected, Detail: reason})
}

func (r *ParseResult) skip(line int, detail string) {
	r.Entries = append(r.Entries, models.LogEntry{Line: line, Status: models.LogSkipped, Detail: detail})
}

// ParseBulkInput normalizes raw input into shift records. Bad rows are
// rejected individually; an error is returned only when the input as a whole
// cannot be processed.
func ParseBulkInput(input Input, opts Options) (ParseResult, error) {
	if err := opts.validate(); err != nil {
		return ParseResult{}, err
	}

	switch input.Format {
	case FormatText:
		return parseText(string(input.Data), opts)
	case FormatJSON:
		return parseJSON(input.Data, opts)
	case FormatRows:
		return parseRows(input.Rows, opts), nil
	default:
		return ParseResult{}, fmt.Errorf("%w: %q", ErrUnknownFormat, input.Format)
	}
}

func parseText(text string, opts Options) (ParseResult, error) {
	var result ParseResult
	delimiter := opts.Delimiter
	first := true

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo := i + 1

		if first {
			delimiter = delimiter.detect(line)
		}

		cells, err := delimiter.split(line)
		if err != nil {
			result.reject(lineNo, models.ReasonMalformed, line)
			first = false
			continue
		}

		if first && opts.SkipHeader && looksLikeHeader(cells, opts) {
			result.skip(lineNo, "header")
			first = false
			continue
		}
		first = false

		parsePositional(&result, lineNo, line, cells, opts)
	}

	return result, nil
}

func parseRows(rows [][]string, opts Options) ParseResult {
	var result ParseResult
	first := true

	for i, cells := range rows {
		lineNo := i + 1
		if isBlank(cells) {
			continue
		}

		// Spreadsheet APIs trim trailing empty cells.
		if len(cells) < len(opts.Layout) {
			padded := make([]string, len(opts.Layout))
			copy(padded, cells)
			cells = padded
		}
		raw := strings.Join(cells, "\t")

		if first && opts.SkipHeader && looksLikeHeader(cells, opts) {
			result.skip(lineNo, "header")
			first = false
			continue
		}
		first = false

		parsePositional(&result, lineNo, raw, cells, opts)
	}

	return result
}

func parsePositional(result *ParseResult, lineNo int, raw string, cells []string, opts Options) {
	if len(cells) != len(opts.Layout) {
		result.reject(lineNo, models.ReasonColumnCount, raw)
		return
	}

	row := dayRow{}
	var rawDate string
	for i, col := range opts.Layout {
		cell := cells[i]
		switch col.Role {
		case RoleDate:
			rawDate = cell
		case RoleHours:
			row.Hours = opts.Locale.ParseNumber(cell)
		case RoleKm:
			row.Km = opts.Locale.ParseNumber(cell)
		case RolePlatform:
			row.Amounts = append(row.Amounts, platformAmount{
				Platform: col.Platform,
				Earnings: opts.Locale.ParseNumber(cell),
			})
		}
	}

	acceptDay(result, lineNo, raw, rawDate, row, opts)
}

// acceptDay validates a day row and, when valid, allocates it into records.
func acceptDay(result *ParseResult, lineNo int, raw, rawDate string, row dayRow, opts Options) {
	date, ok := opts.Locale.NormalizeDate(rawDate)
	if !ok {
		result.reject(lineNo, models.ReasonInvalidDate, raw)
		return
	}
	row.Date = date

	values := []float64{row.Hours, row.Km}
	for _, a := range row.Amounts {
		values = append(values, a.Earnings)
	}
	if reason := checkValues(values...); reason != "" {
		result.reject(lineNo, reason, raw)
		return
	}

	if row.totalEarnings() == 0 && row.Hours == 0 && row.Km == 0 {
		result.reject(lineNo, models.ReasonEmptyDay, raw)
		return
	}

	result.accept(lineNo, opts.Policy.allocate(row, opts.Placeholder))
}

func checkValues(values ...float64) string {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.ReasonNonFinite
		}
	}
	for _, v := range values {
		if v < 0 {
			return models.ReasonNegative
		}
	}
	return ""
}

// looksLikeHeader reports whether a first row is a header: its date cell is
// not a date and contains letters.
func looksLikeHeader(cells []string, opts Options) bool {
	idx := opts.Layout.dateIndex()
	if idx < 0 || idx >= len(cells) {
		return false
	}
	if _, ok := opts.Locale.NormalizeDate(cells[idx]); ok {
		return false
	}
	return strings.IndexFunc(cells[idx], unicode.IsLetter) >= 0
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
