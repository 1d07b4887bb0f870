package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is wrapped by UpstreamError when a completion has no content.
var ErrEmptyContent = errors.New("empty content received from completion service")

// ConfigurationError reports a missing or invalid setting needed to reach the
// completion service. It is fatal and never retried.
type ConfigurationError struct {
	Setting string
	Hint    string
}

func (e *ConfigurationError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s is not set", e.Setting)
	}
	return fmt.Sprintf("%s is not set. %s", e.Setting, e.Hint)
}

// UpstreamError reports that the completion service failed, returned no
// content, or returned content that is not the expected JSON.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
