package application

import "time"

// Clock abstraction so services and the coordinator stay testable
type Clock interface {
	Now() time.Time
}

// SystemClock default implementation backed by time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
