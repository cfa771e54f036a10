package chaincontrol

import "fmt"

type lookupPanicError struct {
	value interface{}
}

func (e *lookupPanicError) Error() string {
	return fmt.Sprintf("weather lookup panicked: %v", e.value)
}
