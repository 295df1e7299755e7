package executor

import "fmt"

type ErrClosed struct {
	Executor string
}

func (e ErrClosed) Error() string {
	return fmt.Sprintf("executor '%s' is closed", e.Executor)
}
