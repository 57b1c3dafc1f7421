package count

// OutcomeKind classifies a processed submission.
type OutcomeKind int

// Submission outcomes.
const (
	OutcomeAccepted     OutcomeKind = iota + 1 // next number, no new personal best
	OutcomePersonalBest                        // next number and a new personal best
	OutcomeRepeatedUser                        // same user twice in a row; count reset
	OutcomeWrongNumber                         // not the next number; count reset
)

// String returns a metrics/log friendly label.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomePersonalBest:
		return "personal_best"
	case OutcomeRepeatedUser:
		return "repeated_user"
	case OutcomeWrongNumber:
		return "wrong_number"
	default:
		return "unknown"
	}
}

// Outcome describes the effect of one Submit call.
type Outcome struct {
	Kind   OutcomeKind
	UserID UserID
	Value  int64

	// DisplayCount is the count as shown before this submission.
	DisplayCount int64
	// NextExpected is the number the game waits for now.
	NextExpected int64

	// Personal best details; set for OutcomePersonalBest only.
	PreviousBest int64
	NewBest      int64
	PreviousRank int // 0 when the user was not ranked before
	NewRank      int
	RankImproved bool
	Overtaken    *UserID
}

// Accepted reports whether the count advanced.
func (o Outcome) Accepted() bool { return o.Kind.Accepted() }

// Failed reports whether the submission ruined the count.
func (o Outcome) Failed() bool { return o.Kind.Failed() }

// Accepted reports whether k advances the count.
func (k OutcomeKind) Accepted() bool {
	return k == OutcomeAccepted || k == OutcomePersonalBest
}

// Failed reports whether k resets the count.
func (k OutcomeKind) Failed() bool {
	return k == OutcomeRepeatedUser || k == OutcomeWrongNumber
}
