// ABOUTME: Completion request/response value objects
// ABOUTME: Transport-neutral contract between the session manager and the LLM client
package models

import (
	"errors"
	"fmt"
	"strings"
)

// CompletionRequest is a single "generate completion" call
type CompletionRequest struct {
	SystemContext   []string
	UserText        string
	MaxOutputTokens int
	Temperature     float32
}

// CompletionResponse carries the generated text
type CompletionResponse struct {
	Text string
}

// Validate checks the request is well formed before it hits the network
func (r CompletionRequest) Validate() error {
	if r.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", r.MaxOutputTokens)
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return fmt.Errorf("temperature must be 0-1, got %f", r.Temperature)
	}
	if len(r.SystemContext) == 0 && strings.TrimSpace(r.UserText) == "" {
		return errors.New("request has neither system context nor user text")
	}
	return nil
}
