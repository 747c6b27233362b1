// Package csvparser decodes uploaded bank statements: it picks a text
// encoding, splits CSV records, finds the header row and infers which column
// carries which role.
package csvparser

import (
	"encoding/csv"
	"io"
	"strings"

	"fjacquet/expense-import/internal/dateutils"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/parsererror"
)

// DefaultHeaderScanRows bounds how deep a header row is searched for when
// the first row is not one.
const DefaultHeaderScanRows = 50

// Format describes the detected layout family.
type Format string

const (
	FormatHeader     Format = "header"
	FormatHeaderless Format = "headerless"
)

// Row is one non-blank data record with its 1-based line in the file.
type Row struct {
	Line   int
	Fields []string
}

// Decoded is the result of decoding one upload.
type Decoded struct {
	Encoding  string
	Delimiter rune
	Format    Format
	Header    []string
	// HeaderLine is the line of the header row, 0 when headerless.
	HeaderLine int
	// Preamble counts non-blank rows above the header row.
	Preamble int
	Mapping  ColumnMapping
	Rows     []Row
}

// Decoder turns raw upload bytes into rows and a column mapping.
type Decoder struct {
	encodings      []Encoding
	headerScanRows int
	logger         logging.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithEncodings replaces the candidate encodings.
func WithEncodings(encodings ...Encoding) Option {
	return func(d *Decoder) {
		d.encodings = encodings
	}
}

// WithHeaderScanRows sets how many leading rows are searched for a header.
func WithHeaderScanRows(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.headerScanRows = n
		}
	}
}

// NewDecoder creates a Decoder with the default encoding trial order.
func NewDecoder(logger logging.Logger, opts ...Option) *Decoder {
	if logger == nil {
		logger = logging.Discard()
	}
	d := &Decoder{
		encodings:      DefaultEncodings(),
		headerScanRows: DefaultHeaderScanRows,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes data uploaded as filePath. A *parsererror.DecodeError is
// returned when no encoding succeeds, and a *parsererror.InvalidFormatError
// when the text holds no CSV rows.
func (d *Decoder) Decode(filePath string, data []byte) (*Decoded, error) {
	text, encoding, err := d.decodeText(filePath, data)
	if err != nil {
		return nil, err
	}

	delimiter := SniffDelimiter(text)
	rows, err := readRecords(text, delimiter)
	if err != nil {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       filePath,
			ExpectedFormat: "CSV",
			Msg:            "unreadable CSV content",
			Err:            err,
		}
	}
	if len(rows) == 0 {
		return nil, &parsererror.InvalidFormatError{
			FilePath:       filePath,
			ExpectedFormat: "CSV",
			Msg:            "file has no rows",
		}
	}

	decoded := &Decoded{
		Encoding:  encoding,
		Delimiter: delimiter,
	}

	headerIdx := d.findHeader(rows)
	if headerIdx < 0 && !startsWithDate(rows[0].Fields) {
		// Row 0 is not data, so it is the header even when its names leave
		// roles unmapped. Rows then skip instead of being read as debits.
		headerIdx = 0
	}
	if headerIdx < 0 {
		decoded.Format = FormatHeaderless
		decoded.Mapping = HeaderlessMapping()
		decoded.Rows = rows
	} else {
		header := rows[headerIdx]
		decoded.Format = FormatHeader
		decoded.Header = header.Fields
		decoded.HeaderLine = header.Line
		decoded.Preamble = headerIdx
		decoded.Mapping = MappingFromHeader(header.Fields)
		decoded.Rows = rows[headerIdx+1:]
	}

	d.logger.WithFields(
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldEncoding, encoding),
		logging.F("format", decoded.Format),
		logging.F(logging.FieldCount, len(decoded.Rows)),
	).Debug("Decoded statement")

	return decoded, nil
}

func (d *Decoder) decodeText(filePath string, data []byte) (string, string, error) {
	tried := make([]string, 0, len(d.encodings))
	var lastErr error
	for _, enc := range d.encodings {
		tried = append(tried, enc.Name)
		text, err := enc.Decode(data)
		if err != nil {
			lastErr = err
			continue
		}
		return text, enc.Name, nil
	}
	return "", "", &parsererror.DecodeError{FilePath: filePath, Tried: tried, Err: lastErr}
}

// findHeader returns the index of the header row, or -1 for a headerless
// file.
func (d *Decoder) findHeader(rows []Row) int {
	limit := d.headerScanRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		if looksLikeHeader(rows[i].Fields) {
			return i
		}
	}
	return -1
}

// startsWithDate reports whether the first cell parses as a statement date,
// which is what a headerless export starts with.
func startsWithDate(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	_, err := dateutils.ParseTransactionDate(fields[0])
	return err == nil
}

// readRecords splits text into records, tolerating ragged rows and stray
// quotes, and drops rows whose cells are all blank.
func readRecords(text string, delimiter rune) ([]Row, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows []Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(record) {
			continue
		}
		line, _ := r.FieldPos(0)
		fields := make([]string, len(record))
		for i, cell := range record {
			fields[i] = strings.TrimSpace(cell)
		}
		rows = append(rows, Row{Line: line, Fields: fields})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// SniffDelimiter picks the most frequent of comma, semicolon and tab outside
// quotes on the first non-empty line. Comma wins ties.
func SniffDelimiter(text string) rune {
	var first string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			first = line
			break
		}
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, r := range first {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ',' || r == ';' || r == '\t'):
			counts[r]++
		}
	}

	best := ','
	for _, candidate := range []rune{';', '\t'} {
		if counts[candidate] > counts[best] {
			best = candidate
		}
	}
	return best
}
