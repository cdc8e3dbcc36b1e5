// Package analysis filters samples by a temperature threshold and computes the
// descriptive statistics of the filtered subset.
//
// Filter keeps every sample with Temperature >= threshold, in dataset order.
// Summarize averages growth rate, humidity and temperature with gonum/stat and
// labels the result:
//
//	sufficiency = "limited"  if count < 20, else "sufficient"
//	condition   = "high"     if threshold > 25, else "moderate"
//
// An empty subset yields NaN averages and HasData == false.
package analysis
