package document

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-facture/internal/common"
	"github.com/noah-isme/backend-facture/internal/totals"
)

// NewValidator returns a validator that understands decimal fields and discount rules.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			// oversized values fail every lte rule without being expanded
			if !totals.InRange(d) {
				return math.Inf(1)
			}
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(LineInput)
		reportDiscount(sl, in.Discount, in.DiscountType, "discount", "Discount")
	}, LineInput{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(DiscountInput)
		reportDiscount(sl, in.Amount, in.Type, "amount", "Amount")
	}, DiscountInput{})
	return v
}

func reportDiscount(sl validator.StructLevel, amount decimal.Decimal, t totals.DiscountType, field, structField string) {
	if !totals.InRange(amount) {
		sl.ReportError(amount, field, structField, "range", "")
		return
	}
	switch err := totals.ValidateDiscount(amount, t); {
	case err == nil:
	case errors.Is(err, totals.ErrNegativeDiscount):
		sl.ReportError(amount, field, structField, "gte", "0")
	case errors.Is(err, totals.ErrPercentageOutOfRange):
		sl.ReportError(amount, field, structField, "lte", "100")
	}
}

// validationError converts validator output into the API error shape.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.ValidationError("invalid payload", errors.Join(ErrInvalidInput, err), nil)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fieldPath(fe.Namespace())] = ruleOf(fe)
	}
	return common.ValidationError("invalid payload", errors.Join(ErrInvalidInput, err), details)
}

// fieldPath drops the root struct name, "Input.lines[0].quantity" becomes "lines[0].quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleOf(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
