package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// CycleSummary is a compact view of the movements inside one financial cycle.
type CycleSummary struct {
	CycleID    string
	Income     Money
	Expense    Money
	Count      int
	ByCategory []CategoryAmount
}

// Net returns income minus expense for the cycle.
func (s CycleSummary) Net() Money {
	return s.Income.Sub(s.Expense)
}

// AmountFor returns the total spent in the given category, zero if none.
func (s CycleSummary) AmountFor(c Category) Money {
	for _, ca := range s.ByCategory {
		if ca.Category == c {
			return ca.Amount
		}
	}
	return Money{}
}
