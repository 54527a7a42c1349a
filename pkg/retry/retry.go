// Package retry runs actions until they succeed or a Strategy gives up.
package retry

// Action is a unit of work that may be attempted more than once.
type Action func() error

// Retrier applies a fixed set of strategies to every action it runs.
type Retrier interface {
	Retry(action Action) (uint, error)
}

type retrier []Strategy

// NewRetrier binds strategies for repeated use. Without any strategies the
// action is retried in a tight loop until it succeeds.
func NewRetrier(strategies ...Strategy) Retrier {
	return retrier(strategies)
}

func (r retrier) Retry(action Action) (uint, error) {
	return Retry(action, r...)
}

// Retry runs action until it returns nil or a strategy declines another
// attempt, and reports how many attempts were made. Strategies are consulted
// in order after every failure, so sleeping strategies belong at the end.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, strategy := range strategies {
			if !strategy(attempts, err) {
				return attempts, err
			}
		}
	}
}
