package domain

// Totals accumulates fractional true-positive, false-positive and
// false-negative weights. Summing totals across files before computing
// ratios gives micro-averaged metrics; per-file ratios are never averaged
// directly, since that biases toward files with few edits.
type Totals struct {
	TP float64 `json:"tp"`
	FP float64 `json:"fp"`
	FN float64 `json:"fn"`
}

// Add returns the element-wise sum of two totals.
func (t Totals) Add(o Totals) Totals {
	return Totals{TP: t.TP + o.TP, FP: t.FP + o.FP, FN: t.FN + o.FN}
}

// SumMatches sums the fractional weights over a match list.
func SumMatches(matches []EditMatch) Totals {
	var t Totals
	for _, m := range matches {
		t.TP += m.TP
		t.FP += m.FP
		t.FN += m.FN
	}
	return t
}

// Metrics holds precision, recall and F1 together with the raw totals
// they were computed from, so consumers can re-aggregate without
// re-deriving booleans.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Totals    Totals  `json:"totals"`
}

// Precision is tp/(tp+fp), 0 when the denominator is 0. The zero
// convention (never NaN) keeps aggregation composable.
func (t Totals) Precision() float64 {
	if t.TP+t.FP == 0 {
		return 0
	}
	return t.TP / (t.TP + t.FP)
}

// Recall is tp/(tp+fn), 0 when the denominator is 0.
func (t Totals) Recall() float64 {
	if t.TP+t.FN == 0 {
		return 0
	}
	return t.TP / (t.TP + t.FN)
}

// FBeta is the F-measure with recall weighted by beta squared.
// Defined as 0 when both precision and recall are 0.
func FBeta(precision, recall, beta float64) float64 {
	b2 := beta * beta
	denom := b2*precision + recall
	if denom == 0 {
		return 0
	}
	return (1 + b2) * precision * recall / denom
}

// Score reduces totals to precision/recall/F1.
func (t Totals) Score() Metrics {
	p := t.Precision()
	r := t.Recall()
	return Metrics{
		Precision: p,
		Recall:    r,
		F1:        FBeta(p, r, 1),
		Totals:    t,
	}
}

// ScoreMatches reduces a single match list to metrics.
func ScoreMatches(matches []EditMatch) Metrics {
	return SumMatches(matches).Score()
}

// ScoreFiles micro-averages across many files' match lists: totals are
// summed over all files first, then reduced once.
func ScoreFiles(files []FileResult) Metrics {
	var t Totals
	for _, f := range files {
		t = t.Add(f.Totals())
	}
	return t.Score()
}

// TypeMetrics is a per-edit-type metrics breakdown entry.
type TypeMetrics struct {
	Metrics Metrics `json:"metrics"`

	// Count is the number of ground-truth edits of this type (matches
	// plus misses).
	Count int `json:"count"`
}

// ScoreByType groups match weights by edit type. Entries without a type
// (never produced by the matcher) are skipped.
func ScoreByType(matches []EditMatch) map[EditType]TypeMetrics {
	totals := make(map[EditType]Totals)
	counts := make(map[EditType]int)
	for _, m := range matches {
		if m.Type == "" {
			continue
		}
		totals[m.Type] = totals[m.Type].Add(Totals{TP: m.TP, FP: m.FP, FN: m.FN})
		if m.ExpectedEditNum != nil {
			counts[m.Type]++
		}
	}

	out := make(map[EditType]TypeMetrics, len(totals))
	for t, tot := range totals {
		out[t] = TypeMetrics{Metrics: tot.Score(), Count: counts[t]}
	}
	return out
}

// CorrectCount reports how many entries are judged correct after
// penalties (tp >= 0.5), alongside the ground-truth edit count.
func CorrectCount(matches []EditMatch) (correct, expected int) {
	for _, m := range matches {
		if m.TP >= 0.5 {
			correct++
		}
		if m.ExpectedEditNum != nil {
			expected++
		}
	}
	return correct, expected
}

// Interval is a 95% bootstrap confidence interval expressed as raw
// bounds. Offsets converts it to signed offsets from a point estimate
// for unambiguous display (+upper-point / -point-lower).
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Offsets returns the interval as (down, up) distances from point.
func (iv Interval) Offsets(point float64) (down, up float64) {
	return point - iv.Lower, iv.Upper - point
}
