// Package gpa turns letter grades and credit weights into grade-point averages
// and keeps the cached Semester.GPA in sync with the subjects of the semester.
package gpa

import (
	"math"
	"math/big"
	"strconv"

	"github.com/trezcool/unitrack/core/subject"
)

// Tally accumulates weighted grade points of calculated subjects.
// Grade points are exact tenths, so the sum is kept as an integer count of tenths.
type Tally struct {
	Points  float64 `json:"points"`
	Credits int     `json:"credits"`
	tenths  int
}

// Add accounts for sub unless it is excluded from GPA math.
// Unknown grades add 0 points but their credits still count.
func (t *Tally) Add(sub subject.Subject) {
	if !sub.IsCalculated {
		return
	}
	t.tenths += int(math.Round(sub.GradePoints()*10)) * sub.CreditValue
	t.Credits += sub.CreditValue
	t.Points = float64(t.tenths) / 10
}

// Merge pools another tally into t. Credits and points are pooled, never averaged.
func (t *Tally) Merge(other Tally) {
	t.tenths += other.tenths
	t.Credits += other.Credits
	t.Points = float64(t.tenths) / 10
}

// GPA is Points / Credits rounded to 2 decimals, or 0 when nothing was counted.
func (t Tally) GPA() float64 {
	if t.Credits == 0 {
		return 0
	}
	return roundRat(big.NewRat(int64(t.tenths), int64(t.Credits)*10))
}

// Compute returns the GPA of the given subjects.
func Compute(subjects []subject.Subject) float64 {
	return TallyOf(subjects).GPA()
}

// TallyOf sums up the given subjects.
func TallyOf(subjects []subject.Subject) Tally {
	var t Tally
	for _, sub := range subjects {
		t.Add(sub)
	}
	return t
}

// Round rounds the decimal form of x to 2 decimal places, halves away from zero.
// 3.475 gives 3.48 even though its binary value is slightly below the tie.
func Round(x float64) float64 {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(x, 'f', -1, 64))
	if !ok {
		return x // NaN, Inf
	}
	return roundRat(r)
}

// roundRat rounds r to 2 decimal places, halves away from zero.
func roundRat(r *big.Rat) float64 {
	neg := r.Sign() < 0
	hundredths := new(big.Rat).Mul(new(big.Rat).Abs(r), big.NewRat(100, 1))
	q, m := new(big.Int).QuoRem(hundredths.Num(), hundredths.Denom(), new(big.Int))
	if m.Lsh(m, 1).Cmp(hundredths.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	f, _ := new(big.Rat).SetFrac(q, big.NewInt(100)).Float64()
	if neg {
		return -f
	}
	return f
}
