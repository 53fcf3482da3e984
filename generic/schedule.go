package generic

// =============================================================================
// INSTALLMENT SCHEDULE - When recurring amounts fall due
// =============================================================================

// InstallmentSchedule generates due events for a time range.
// Rent and prepayments are monthly today; the interface leaves room for
// quarterly landlords without touching callers.
type InstallmentSchedule interface {
	// DueInstallments returns installments due in [from, to].
	DueInstallments(from, to TimePoint) []Installment
}

// Installment represents a single due amount.
type Installment struct {
	DueAt  TimePoint
	Amount Amount
	Reason string
}

// MonthlySchedule falls due on the first of every month in which the
// window [Start, End] is active. A zero End means open-ended.
type MonthlySchedule struct {
	Amount Amount
	Start  TimePoint
	End    TimePoint
	Reason string
}

func (s MonthlySchedule) DueInstallments(from, to TimePoint) []Installment {
	if to.Before(from) {
		return nil
	}
	var out []Installment
	for m := StartOfMonth(from.Year(), from.Month()); !m.After(to); m = m.AddMonths(1) {
		monthEnd := EndOfMonth(m.Year(), m.Month())
		if !s.Start.IsZero() && monthEnd.Before(s.Start) {
			continue
		}
		if !s.End.IsZero() && m.After(s.End) {
			break
		}
		out = append(out, Installment{DueAt: m, Amount: s.Amount, Reason: s.Reason})
	}
	return out
}

// TotalDue sums the installments due in [from, to].
func TotalDue(s InstallmentSchedule, unit Unit, from, to TimePoint) Amount {
	total := ZeroOf(unit)
	for _, inst := range s.DueInstallments(from, to) {
		total = total.Add(inst.Amount)
	}
	return total
}
