package assignment

// Percentage is ObtainedMarks / TotalMarks * 100, or 0 when there are no marks yet.
func (a Assignment) Percentage() float64 {
	if !a.ObtainedMarks.Valid || a.TotalMarks <= 0 {
		return 0
	}
	return a.ObtainedMarks.Float64 / a.TotalMarks * 100
}

// Feedback is the display-only grade of a marked assignment.
// It is unrelated to the Subject grade used in GPA math.
type Feedback struct {
	Grade    string `json:"grade"`
	Feedback string `json:"feedback"`
}

// breakpoints are ordered from the highest cut down; a percentage gets the first
// entry whose cut it reaches.
var breakpoints = []struct {
	cut float64
	Feedback
}{
	{90, Feedback{"A+", "Excellent!"}},
	{85, Feedback{"A", "Very Good!"}},
	{80, Feedback{"A-", "Good job!"}},
	{75, Feedback{"B+", "Good work!"}},
	{70, Feedback{"B", "Satisfactory"}},
	{65, Feedback{"B-", "Satisfactory"}},
	{60, Feedback{"C+", "Pass"}},
	{55, Feedback{"C", "Pass"}},
	{50, Feedback{"C-", "Pass"}},
	{45, Feedback{"D+", "Marginal Pass"}},
	{40, Feedback{"D", "Marginal Pass"}},
}

var failed = Feedback{"F", "Needs Improvement"}

func FeedbackFor(percentage float64) Feedback {
	for _, bp := range breakpoints {
		if percentage >= bp.cut {
			return bp.Feedback
		}
	}
	return failed
}

// Feedback grades the assignment from its percentage.
func (a Assignment) Feedback() Feedback {
	return FeedbackFor(a.Percentage())
}
