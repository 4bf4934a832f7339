// Package clock даёт источник текущего времени для границ недели и окна редактирования.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Real: системные часы в UTC.
type Real struct{}

func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed всегда возвращает одно и то же время (тесты, сидирование).
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f).UTC() }
