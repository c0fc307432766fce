package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request reaches the handler.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler writes its response.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
