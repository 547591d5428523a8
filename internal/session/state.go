package session

import "fmt"

type State int

const (
	NotStarted State = iota
	InProgress
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, v := range []State{NotStarted, InProgress, Finished} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Kind selects the ordering and scoring policy of a session.
type Kind int

const (
	Study Kind = iota
	BankPractice
	PracticeTest
)

func (k Kind) String() string {
	switch k {
	case Study:
		return "study"
	case BankPractice:
		return "bank_practice"
	case PracticeTest:
		return "practice_test"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	for _, v := range []Kind{Study, BankPractice, PracticeTest} {
		if v.String() == string(b) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown session kind %q", b)
}

// revealsAnswers reports whether correctness is shown right after each answer.
func (k Kind) revealsAnswers() bool { return k != PracticeTest }
