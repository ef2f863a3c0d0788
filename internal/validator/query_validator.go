package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ScreenerQuery holds the filter criteria for one screener session.
type ScreenerQuery struct {
	// Band is the MA90 proximity band in percent.
	Band  float64 `validate:"gt=0,lte=50"`
	Limit int     `validate:"gte=1,lte=200"`
}

// ValidateScreenerQuery checks screener criteria against their bounds.
func ValidateScreenerQuery(q ScreenerQuery) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid screener query: %w", err)
	}
	return nil
}

// ChartQuery holds the parameters of a chart data request.
type ChartQuery struct {
	StockID int   `validate:"gt=0"`
	Days    int   `validate:"gte=0,lte=3650"`
	Windows []int `validate:"omitempty,max=6,dive,gt=0,lte=250"`
}

// ValidateChartQuery checks chart request parameters against their bounds.
func ValidateChartQuery(q ChartQuery) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid chart query: %w", err)
	}
	return nil
}
