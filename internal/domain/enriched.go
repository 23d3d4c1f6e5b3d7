package domain

// Derived holds the fields computed from a repaired transaction. Every field
// is a total function of the transaction, memoized here so aggregation never
// recomputes them per view.
type Derived struct {
	Date       string // YYYY-MM-DD
	Year       int
	Month      int    // 1-12
	MonthName  string // Jan..Dec
	MonthKey   string // YYYY-MM
	Day        int
	DayName    string // Monday..Sunday
	Hour       int    // 0-23
	WeekNumber int    // ISO week
	Quarter    int    // 1-4
	QuarterKey string // Q1..Q4

	IsMonthStart bool // day <= 5
	IsMonthEnd   bool // day >= 26

	TimeSlot        string // Morning / Afternoon / Evening / Night
	Season          string // Festival Season / Sale Season / Normal
	IsFestivalMonth bool

	AmountBucket string // Micro .. Premium

	NetAmount    float64 // amount - discount - cashback, floored at 0
	TotalSavings float64 // cashback + discount
	SavingsPct   float64 // total savings as % of amount

	ProcessingSpeed string // Failed / Instant / Fast / Normal / Slow / VerySlow
}

// EnrichedTransaction is a repaired transaction plus its derived fields.
// This is the only shape the aggregation engine reads.
type EnrichedTransaction struct {
	Transaction
	Derived
}
