package aggregate

// Bucket is one band of a boundary table: a label and its exclusive upper
// bound. The last bucket of a Boundaries catches everything above the
// previous bound; its UpperExclusive is ignored.
type Bucket struct {
	Label          string
	UpperExclusive float64
}

// Boundaries is an ascending boundary table. Classification is
// inclusive-lower / exclusive-upper, first match wins.
type Boundaries []Bucket

// Label classifies a value into its bucket.
func (b Boundaries) Label(v float64) string {
	for i, bucket := range b {
		if i == len(b)-1 {
			return bucket.Label
		}
		if v < bucket.UpperExclusive {
			return bucket.Label
		}
	}
	return ""
}

// Labels returns the bucket labels in boundary order.
func (b Boundaries) Labels() []string {
	out := make([]string, len(b))
	for i, bucket := range b {
		out[i] = bucket.Label
	}
	return out
}

// SpendTiers bands users by total spend.
var SpendTiers = Boundaries{
	{Label: "Low", UpperExclusive: 10000},
	{Label: "Medium", UpperExclusive: 50000},
	{Label: "High", UpperExclusive: 200000},
	{Label: "Very High"},
}

// FrequencySegments bands users by transaction count.
var FrequencySegments = Boundaries{
	{Label: "Rare", UpperExclusive: 5},
	{Label: "Occasional", UpperExclusive: 10},
	{Label: "Regular", UpperExclusive: 20},
	{Label: "Power"},
}

// SavingsTiers bands transactions by total savings earned.
var SavingsTiers = Boundaries{
	{Label: "No Savings", UpperExclusive: 0.01},
	{Label: "Low", UpperExclusive: 100},
	{Label: "Medium", UpperExclusive: 500},
	{Label: "High"},
}
