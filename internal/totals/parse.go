package totals

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLineItems decodes raw JSON rows without ever failing. Rows that are null, not objects,
// or lack a numeric quantity and unit price come back as invalid lines, which Calculate drops.
func ParseLineItems(raw []json.RawMessage) []LineItem {
	out := make([]LineItem, 0, len(raw))
	for _, msg := range raw {
		out = append(out, ParseLineItem(msg))
	}
	return out
}

// ParseLineItem decodes a single row. Numbers may be JSON numbers or numeric strings.
func ParseLineItem(msg json.RawMessage) LineItem {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil || fields == nil {
		return LineItem{}
	}
	item := LineItem{
		Quantity:     lookupNumber(fields, "quantity", "qty"),
		UnitPrice:    lookupNumber(fields, "unitPrice", "unit_price"),
		DiscountType: ParseDiscountType(lookupString(fields, "discountType", "discount_type")),
	}
	if vat := lookupNumber(fields, "vatRate", "vat_rate"); vat.Valid {
		item.VATRate = vat.Decimal
	}
	if d := lookupNumber(fields, "discount"); d.Valid {
		item.Discount = d.Decimal
	}
	return item
}

// ParseNumber reads a JSON number or numeric string. Anything else, including numbers outside
// InRange, is reported as absent.
func ParseNumber(raw json.RawMessage) decimal.NullDecimal {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.NullDecimal{}
	}
	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return decimal.NullDecimal{}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return decimal.NullDecimal{}
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil || !InRange(d) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func lookupNumber(fields map[string]json.RawMessage, keys ...string) decimal.NullDecimal {
	for _, key := range keys {
		if raw, ok := fields[key]; ok {
			return ParseNumber(raw)
		}
	}
	return decimal.NullDecimal{}
}

func lookupString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return ""
}
