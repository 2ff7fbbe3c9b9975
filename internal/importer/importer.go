// Package importer turns an uploaded order export into shipments.
//
// The file has two header rows followed by one data row per shipment. Rows
// are padded to 23 columns, so short rows simply leave trailing fields empty.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Reason codes returned to API clients.
const (
	ReasonMissingFile        = "MISSING_FILE"
	ReasonInvalidFile        = "INVALID_FILE"
	ReasonInvalidContentType = "INVALID_CONTENT_TYPE"
)

// Messages stored as the import's error summary.
const (
	MessageFileNotFound    = "CSV file not found."
	MessageMissingDataRows = "CSV file is missing data rows."
	MessageMalformed       = "CSV file could not be parsed."
)

const (
	headerRows   = 2
	columnCount  = 23
	firstDataRow = headerRows + 1
)

// Column positions in the export.
const (
	colFromFirst = iota
	colFromLast
	colFromStreet1
	colFromStreet2
	colFromCity
	colFromZip
	colFromState
	colToFirst
	colToLast
	colToStreet1
	colToStreet2
	colToCity
	colToZip
	colToState
	colWeightLbs
	colWeightOz
	colLength
	colWidth
	colHeight
	_
	_
	colOrderNumber
	colSKU
)

var allowedContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
	"application/csv":          true,
}

// CheckUpload validates an upload before it is stored. head is the first
// bytes of the file and is sniffed to reject binary content named .csv.
func CheckUpload(filename, contentType string, head []byte) error {
	const op = "import.upload"

	if filename == "" {
		return domain.Rejected(op, ReasonMissingFile, "file is required")
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return domain.Rejected(op, ReasonInvalidFile, "file must be a CSV")
	}
	if !allowedContentTypes[mediaType(contentType)] {
		return domain.Rejected(op, ReasonInvalidContentType, "invalid file type")
	}
	if len(head) > 0 && !isText(head) {
		return domain.Rejected(op, ReasonInvalidFile, "file must be a CSV")
	}
	return nil
}

// mediaType strips parameters such as charset.
func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func isText(head []byte) bool {
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Parse reads an export and builds one shipment per data row. Row numbers
// are 1-based file lines, so the first shipment is row 3.
func Parse(r io.Reader, importJobID uuid.UUID) ([]*domain.Shipment, error) {
	const op = "import.parse"

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// The reader skips blank lines; lines keeps each record's file line.
	var rows [][]string
	var lines []int
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, domain.Rejected(op, ReasonInvalidFile, MessageMalformed)
			}
			return nil, domain.Internal(err, op, "failed to read upload")
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
	if len(rows) < firstDataRow {
		return nil, domain.Rejected(op, ReasonInvalidFile, MessageMissingDataRows)
	}

	shipments := make([]*domain.Shipment, 0, len(rows)-headerRows)
	for i, row := range rows[headerRows:] {
		shipments = append(shipments, shipmentFromRow(importJobID, lines[headerRows+i], pad(row)))
	}
	return shipments, nil
}

func pad(row []string) []string {
	if len(row) >= columnCount {
		return row
	}
	padded := make([]string, columnCount)
	copy(padded, row)
	return padded
}

func shipmentFromRow(importJobID uuid.UUID, rowNumber int, row []string) *domain.Shipment {
	s := domain.NewShipment(importJobID, rowNumber)

	s.ExternalOrderNumber = row[colOrderNumber]
	s.SKU = row[colSKU]

	s.FromName = joinName(row[colFromFirst], row[colFromLast])
	s.FromStreet1 = row[colFromStreet1]
	s.FromStreet2 = row[colFromStreet2]
	s.FromCity = row[colFromCity]
	s.FromPostalCode = row[colFromZip]
	s.FromState = row[colFromState]

	s.ToName = joinName(row[colToFirst], row[colToLast])
	s.ToStreet1 = row[colToStreet1]
	s.ToStreet2 = row[colToStreet2]
	s.ToCity = row[colToCity]
	s.ToPostalCode = row[colToZip]
	s.ToState = row[colToState]

	s.WeightOz = weightOz(row[colWeightLbs], row[colWeightOz])
	s.LengthIn = row[colLength]
	s.WidthIn = row[colWidth]
	s.HeightIn = row[colHeight]

	return s
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// weightOz combines pounds and ounces. If either value fails to parse both
// count as zero, and a total of zero means the weight is unknown.
func weightOz(lbsField, ozField string) string {
	lbs, errLbs := parseNumber(lbsField)
	oz, errOz := parseNumber(ozField)
	if errLbs != nil || errOz != nil {
		lbs, oz = 0, 0
	}
	if lbs == 0 && oz == 0 {
		return ""
	}
	return strconv.FormatFloat(lbs*16+oz, 'f', -1, 64)
}

func parseNumber(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}
