package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ColumnHandle      = "handle"
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnVendor      = "vendor"
	ColumnProductType = "productType"
	ColumnTags        = "tags"
	ColumnSKU         = "variant_sku"
	ColumnPrice       = "variant_price"
	ColumnOptionName  = "variant_option1_name"
	ColumnOptionValue = "variant_option1_value"
	ColumnImages      = "images"

	MetafieldColumnPrefix = "metafield_"
	DefaultMetafieldType  = "single_line_text_field"
	defaultPrice          = "0.00"
)

var RequiredColumns = []string{ColumnHandle, ColumnTitle, ColumnSKU, ColumnPrice}

var (
	ErrMissingSKU    = errors.New("row has no sku")
	ErrMissingHandle = errors.New("row has no handle")
	ErrInvalidPrice  = errors.New("row has an invalid price")
)

type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// CheckColumns reports the required columns absent from header.
func CheckColumns(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, name := range header {
		present[strings.TrimSpace(name)] = struct{}{}
	}
	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// RowFromRecord maps one source record onto a Row using the header names.
// Values are trimmed; unknown non-metafield columns are ignored.
func RowFromRecord(header []string, record []string, line int) Row {
	row := Row{Line: line}
	for i, rawName := range header {
		name := strings.TrimSpace(rawName)
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		switch name {
		case ColumnHandle:
			row.Handle = value
		case ColumnTitle:
			row.Title = value
		case ColumnDescription:
			row.Description = value
		case ColumnVendor:
			row.Vendor = value
		case ColumnProductType:
			row.ProductType = value
		case ColumnTags:
			row.Tags = value
		case ColumnSKU:
			row.SKU = value
		case ColumnPrice:
			row.Price = value
		case ColumnOptionName:
			row.OptionName = value
		case ColumnOptionValue:
			row.OptionValue = value
		case ColumnImages:
			row.Images = value
			row.HasImages = true
		default:
			if strings.HasPrefix(name, MetafieldColumnPrefix) {
				row.Metafields = append(row.Metafields, Field{Name: name, Value: value})
			}
		}
	}
	return row
}

// IsBlankRecord reports whether every cell of record is empty.
func IsBlankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// NormalizePrice formats a row price as a two-decimal string. A blank price
// becomes 0.00.
func NormalizePrice(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultPrice, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if amount.IsNegative() {
		return "", fmt.Errorf("%w: %q is negative", ErrInvalidPrice, raw)
	}
	return amount.StringFixed(2), nil
}

// ParseMetafieldColumn splits metafield_<namespace>_<key>[_<type>]. The
// namespace and key are the first two underscore-delimited segments after
// the prefix; the remainder, if any, is the type.
func ParseMetafieldColumn(name string) (namespace, key, typeName string, ok bool) {
	if !strings.HasPrefix(name, MetafieldColumnPrefix) {
		return "", "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(name, MetafieldColumnPrefix), "_", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	typeName = DefaultMetafieldType
	if len(parts) == 3 && parts[2] != "" {
		typeName = parts[2]
	}
	return parts[0], parts[1], typeName, true
}
