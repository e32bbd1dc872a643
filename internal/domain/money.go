// internal/domain/money.go
package domain

import (
	"github.com/shopspring/decimal"

	"wager-market/internal/util"
)

// MoneyScale is the number of fractional digits stored for balances and stakes.
const MoneyScale = 4

// maxMoney bounds the magnitude of any stored amount (NUMERIC(20,4)).
var maxMoney = decimal.New(1, 20-MoneyScale)

// CheckMoney rejects amounts that storage would round or could not hold.
func CheckMoney(field string, v decimal.Decimal) error {
	if !v.Equal(v.Truncate(MoneyScale)) {
		return util.Errorf(util.ErrInvalidInput, "%s must have at most %d decimal places", field, MoneyScale)
	}
	if v.Abs().GreaterThanOrEqual(maxMoney) {
		return util.Errorf(util.ErrInvalidInput, "%s must be less than %s", field, maxMoney)
	}
	return nil
}
