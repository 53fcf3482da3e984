package metering

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/settlement-engine/generic"
	"github.com/warp/settlement-engine/settlement"
)

// =============================================================================
// BILLING BRIDGE - Net report to expense lines
// =============================================================================

// Tariff prices one medium for one billing year.
type Tariff struct {
	Category     string          // e.g. "Allgemeinstrom"
	PricePerUnit decimal.Decimal // EUR per kWh or m³
	BillingYear  int
	SharedKey    settlement.AllocationKey // key for the net part
}

// ToExpenseLines prices a net result. Each submeter becomes a Direct line
// for the tenancy it is assigned to, billed as measured. The net becomes
// one shared line under the tariff's key. Results with warnings are
// refused; fix the readings first.
func ToExpenseLines(res NetResult, tariff Tariff, assignments map[string]string) ([]settlement.ExpenseLine, error) {
	if len(res.Warnings) > 0 {
		return nil, fmt.Errorf("meter %s: cannot bill %s: %w", res.Parent.ID, res.Interval, errors.Join(res.Warnings...))
	}
	if tariff.SharedKey == nil {
		return nil, fmt.Errorf("%w: tariff %q has no allocation key for the net consumption", generic.ErrConfiguration, tariff.Category)
	}
	if tariff.PricePerUnit.IsNegative() {
		return nil, fmt.Errorf("%w: tariff %q has a negative price", generic.ErrConfiguration, tariff.Category)
	}

	lines := make([]settlement.ExpenseLine, 0, len(res.Children)+1)
	for _, child := range res.Children {
		tenancyID, ok := assignments[child.ID]
		if !ok || tenancyID == "" {
			return nil, fmt.Errorf("%w: submeter %s is not assigned to a tenancy", generic.ErrConfiguration, child.ID)
		}
		lines = append(lines, settlement.ExpenseLine{
			ID:          fmt.Sprintf("meter-%s-%d", child.ID, tariff.BillingYear),
			Category:    fmt.Sprintf("%s (%s %s)", tariff.Category, child.Number, res.PerChild[child.ID]),
			Amount:      price(res.PerChild[child.ID], tariff),
			BillingYear: tariff.BillingYear,
			Key:         settlement.DirectKey{TenancyID: tenancyID},
			Proration:   generic.ProrateNone,
		})
	}
	lines = append(lines, settlement.ExpenseLine{
		ID:          fmt.Sprintf("meter-%s-%d-net", res.Parent.ID, tariff.BillingYear),
		Category:    fmt.Sprintf("%s (%s net %s)", tariff.Category, res.Parent.Number, res.Net),
		Amount:      price(res.Net, tariff),
		BillingYear: tariff.BillingYear,
		Key:         tariff.SharedKey,
		Proration:   generic.ProrateLinear,
	})
	return lines, nil
}

func price(consumption generic.Amount, tariff Tariff) generic.Amount {
	return generic.Money(consumption.Value.Mul(tariff.PricePerUnit)).RoundToMinorUnit()
}
