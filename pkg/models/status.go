// Package models defines the domain models shared by the pipeline, cluster and query components.
package models

import (
	"encoding/json"
	"strings"
)

// ResultStatus is the closed outcome tag of a remote operation.
type ResultStatus int

const (
	StatusUnknown ResultStatus = iota
	StatusSuccess
	StatusFailure
	StatusRunning
)

// ParseResultStatus decodes a backend status discriminant. Anything it does not
// recognise is StatusUnknown, which callers must treat as a failure.
func ParseResultStatus(raw string) ResultStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "ok":
		return StatusSuccess
	case "error", "failure", "failed":
		return StatusFailure
	case "running":
		return StatusRunning
	default:
		return StatusUnknown
	}
}

func (s ResultStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// IsSuccess reports whether the remote operation succeeded.
func (s ResultStatus) IsSuccess() bool {
	return s == StatusSuccess
}

func (s ResultStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ResultStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ParseResultStatus(raw)

	return nil
}
