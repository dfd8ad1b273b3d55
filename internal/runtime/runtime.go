package runtime

import (
	"github.com/ccastromar/tokens/internal/llm"
)

// Runtime carries the state the readiness probe reports on.
type Runtime struct {
	DefinitionsLoaded bool
	LLMClient         llm.LLMClient
}
