package snapshot

// EquityRollforward computes the new equity_balance per spec.md §4.8:
//
//	new = previous + dailyRealizedPnL + dailyCapitalFlow - correction
//
// where correction undoes whatever the prior day's placeholder row
// contributed if that row was never completed. A placeholder carries no
// real P&L or flow data, so an abandoned one (priorDayPlaceholderAbandoned)
// contributes nothing and the prior equity balance passes through
// unchanged for that day.
func EquityRollforward(previousEquityBalance, dailyRealizedPnL, dailyCapitalFlow float64, priorDayPlaceholderAbandoned bool) float64 {
	if priorDayPlaceholderAbandoned {
		return previousEquityBalance
	}
	return previousEquityBalance + dailyRealizedPnL + dailyCapitalFlow
}
