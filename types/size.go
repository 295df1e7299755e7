package types

import (
	"fmt"
)

type Size struct {
	Width  int32
	Height int32
}

func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
