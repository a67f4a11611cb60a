package accounting

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeModelKind selects how administration fees are charged.
type FeeModelKind string

const (
	// FeePercentSplit charges employee and employer each a percentage of the pretax monthly amount.
	FeePercentSplit FeeModelKind = "percent_split"
	// FeeFlatPerEmployee charges a fixed amount per enrolled employee.
	FeeFlatPerEmployee FeeModelKind = "flat_per_employee"
)

// ProfitShareMode selects what a profit share is computed from.
type ProfitShareMode string

const (
	ProfitShareNone        ProfitShareMode = "none"
	ProfitShareFicaSavings ProfitShareMode = "fica_savings"
	ProfitShareBBProfit    ProfitShareMode = "bb_profit"
)

var (
	ErrUnknownFeeModel    = errors.New("unknown fee model")
	ErrUnknownProfitShare = errors.New("unknown profit share mode")
	ErrNegativeInput      = errors.New("fee inputs must not be negative")
	ErrPercentOutOfRange  = errors.New("percent must be between 0 and 100")
)

var hundred = decimal.NewFromInt(100)

// FeeModel describes a company's fee agreement. Percentages are expressed
// as whole percents (3.5 means 3.5%).
type FeeModel struct {
	Kind            FeeModelKind    `json:"kind" binding:"required,oneof=percent_split flat_per_employee"`
	EmployeePercent decimal.Decimal `json:"employeePercent"`
	EmployerPercent decimal.Decimal `json:"employerPercent"`
	EmployeeFlat    decimal.Decimal `json:"employeeFlat"`
	EmployerFlat    decimal.Decimal `json:"employerFlat"`
	EmployeeCount   int             `json:"employeeCount" binding:"gte=0"`
}

// Fees is the result of ComputeFees, rounded to cents.
type Fees struct {
	EmployeeFee decimal.Decimal `json:"employeeFee"`
	EmployerFee decimal.Decimal `json:"employerFee"`
}

// Total returns the combined fee.
func (f Fees) Total() decimal.Decimal {
	return f.EmployeeFee.Add(f.EmployerFee)
}

// ProfitShare is the result of ComputeProfitShare.
type ProfitShare struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ComputeFees applies the fee model to the pretax monthly amount.
func ComputeFees(pretaxMonthly decimal.Decimal, model FeeModel) (Fees, error) {
	if pretaxMonthly.IsNegative() {
		return Fees{}, fmt.Errorf("%w: pretax monthly %s", ErrNegativeInput, pretaxMonthly)
	}

	switch model.Kind {
	case FeePercentSplit:
		if err := checkPercent(model.EmployeePercent); err != nil {
			return Fees{}, fmt.Errorf("employee percent: %w", err)
		}
		if err := checkPercent(model.EmployerPercent); err != nil {
			return Fees{}, fmt.Errorf("employer percent: %w", err)
		}
		return Fees{
			EmployeeFee: percentOf(pretaxMonthly, model.EmployeePercent),
			EmployerFee: percentOf(pretaxMonthly, model.EmployerPercent),
		}, nil
	case FeeFlatPerEmployee:
		if model.EmployeeCount < 0 || model.EmployeeFlat.IsNegative() || model.EmployerFlat.IsNegative() {
			return Fees{}, ErrNegativeInput
		}
		count := decimal.NewFromInt(int64(model.EmployeeCount))
		return Fees{
			EmployeeFee: model.EmployeeFlat.Mul(count).Round(2),
			EmployerFee: model.EmployerFlat.Mul(count).Round(2),
		}, nil
	default:
		return Fees{}, fmt.Errorf("%w: %q", ErrUnknownFeeModel, model.Kind)
	}
}

// ComputeProfitShare computes the profit share line for an invoice. Mode
// "none" (or empty) yields a zero amount and empty description.
func ComputeProfitShare(mode ProfitShareMode, percent, ficaSavings, bbProfit decimal.Decimal) (ProfitShare, error) {
	switch mode {
	case "", ProfitShareNone:
		return ProfitShare{Amount: decimal.Zero}, nil
	case ProfitShareFicaSavings, ProfitShareBBProfit:
	default:
		return ProfitShare{}, fmt.Errorf("%w: %q", ErrUnknownProfitShare, mode)
	}

	if err := checkPercent(percent); err != nil {
		return ProfitShare{}, err
	}

	base, label := ficaSavings, "FICA savings"
	if mode == ProfitShareBBProfit {
		base, label = bbProfit, "program profit"
	}
	if base.IsNegative() {
		return ProfitShare{}, fmt.Errorf("%w: %s %s", ErrNegativeInput, label, base)
	}

	return ProfitShare{
		Amount:      percentOf(base, percent),
		Description: fmt.Sprintf("Profit share: %s%% of %s", percent.String(), label),
	}, nil
}

func percentOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred).Round(2)
}

func checkPercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("%w: %s", ErrPercentOutOfRange, p)
	}
	return nil
}
