// Package estimator は最適価格と需要予測の計算式を提供します。
// どちらも副作用のない純粋関数で、入力が非負であることは呼び出し側の責任です。
package estimator

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// minPriceFactor は需要予測の価格係数の下限です。
const minPriceFactor = 0.1

// StockFactor は在庫と需要の比から価格の寄せ具合を求めます。
// 分母の +1 により stock と demand が両方0でも0除算になりません。
func StockFactor(stock, demand int) float64 {
	s := float64(stock)
	return 1 - s/(s+float64(demand)+1)
}

// OptimizedPrice は販売価格と原価を在庫係数で按分し、小数2桁に丸めた価格を返します。
// 在庫が需要に対して少ないほど販売価格に、多いほど原価に近づきます。
func OptimizedPrice(cost, selling float64, stock, demand int) decimal.Decimal {
	sf := StockFactor(stock, demand)
	price := selling*(1-sf) + cost*sf
	return exactDecimal(price).RoundBank(2)
}

// exactDecimal は float64 が保持する二進値をそのまま10進に展開します。
// NewFromFloat は最短表現（2.675 など）を返すため、丸め前の値には使いません。
func exactDecimal(f float64) decimal.Decimal {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		return decimal.NewFromFloat(f)
	}
	// 分母は 2^k なので、分子に 5^k を掛ければ 10^-k の指数で正確に表せます。
	k := r.Denom().BitLen() - 1
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(k)), nil)
	return decimal.NewFromBigInt(new(big.Int).Mul(r.Num(), five), int32(-k))
}

// PriceFactor は販売価格から需要の減衰係数を求めます（下限 0.1）。
func PriceFactor(selling float64) float64 {
	return math.Max(1-selling/100, minPriceFactor)
}

// DemandForecast は販売実績・在庫・価格から需要を予測し、最近接偶数丸めで整数にします。
func DemandForecast(unitsSold, stock int, selling float64) int {
	f := float64(unitsSold)*PriceFactor(selling) + float64(stock)/10
	return int(math.RoundToEven(f))
}
