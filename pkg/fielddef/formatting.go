/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package fielddef

import (
	"strconv"
)

type FormattingType string

const (
	FormattingType_Decimal  FormattingType = "decimal"
	FormattingType_Percent  FormattingType = "percent"
	FormattingType_Currency FormattingType = "currency"
)

// Numeric presentation settings.
//
// Applied at presentation time only, stored values are never formatted.
type Formatting struct {
	Type      FormattingType `json:"type"`
	Precision int            `json:"precision"`
	Symbol    string         `json:"symbol,omitempty"`
}

// Renders cell value for presentation
func (f *Formatting) Format(v any) string {
	n, ok := ToNumber(v)
	if f == nil || !ok {
		return ToText(v)
	}
	switch f.Type {
	case FormattingType_Percent:
		return strconv.FormatFloat(n*100, 'f', f.Precision, 64) + "%"
	case FormattingType_Currency:
		return f.Symbol + strconv.FormatFloat(n, 'f', f.Precision, 64)
	}
	return strconv.FormatFloat(n, 'f', f.Precision, 64)
}
