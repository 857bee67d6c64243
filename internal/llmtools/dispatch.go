package llmtools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ddgsearch/internal/quota"
)

// Boundary errors. Their text reaches the agent host verbatim.
var (
	ErrNoArguments      = errors.New("No arguments provided")
	ErrUnknownTool      = errors.New("Unknown tool")
	ErrInvalidArguments = errors.New("Invalid arguments")
)

// Error kinds reported in logs.
const (
	KindInvalidArgument   = "invalid_argument"
	KindUnknownCapability = "unknown_capability"
	KindRateLimitExceeded = "rate_limit_exceeded"
	KindProviderError     = "provider_error"
)

// ErrorKind classifies err for logging. Anything not raised by the boundary
// or the rate governor is attributed to the provider.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoArguments), errors.Is(err, ErrInvalidArguments):
		return KindInvalidArgument
	case errors.Is(err, ErrUnknownTool):
		return KindUnknownCapability
	case errors.Is(err, quota.ErrRateLimitExceeded):
		return KindRateLimitExceeded
	default:
		return KindProviderError
	}
}

// Payload is the transport-neutral answer to one invocation.
type Payload struct {
	Text    string
	IsError bool
}

// ErrorPayload is the single constructor for failed invocations.
func ErrorPayload(err error) Payload {
	return Payload{Text: "Error: " + err.Error(), IsError: true}
}

// Dispatch runs the named tool with raw JSON arguments. It never returns an
// error and never panics: every failure, including a missing payload, an
// unknown name, a schema violation or a handler error, comes back as an
// error-flagged Payload.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) Payload {
	logger := log.With().Str("request_id", uuid.NewString()).Str("tool", name).Logger()
	ctx = logger.WithContext(ctx)

	started := time.Now()
	text, err := r.call(ctx, name, args)
	if err != nil {
		logger.Warn().Err(err).Str("error_kind", ErrorKind(err)).Dur("duration", time.Since(started)).Msg("tool call failed")
		return ErrorPayload(err)
	}
	logger.Info().Dur("duration", time.Since(started)).Int("bytes", len(text)).Msg("tool call ok")
	return Payload{Text: text}
}

func (r *Registry) call(ctx context.Context, name string, args json.RawMessage) (text string, err error) {
	if absent(args) {
		return "", ErrNoArguments
	}
	reg, ok := r.lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err := validateArgs(reg, args); err != nil {
		return "", err
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool %s panicked: %v", name, p)
		}
	}()
	return reg.def.Handler(ctx, args)
}

func validateArgs(reg registered, args json.RawMessage) error {
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidArguments, reg.def.StableName, err)
	}
	if _, ok := v.(map[string]any); !ok {
		return fmt.Errorf("%w for %s: arguments must be a JSON object", ErrInvalidArguments, reg.def.StableName)
	}
	if reg.schema == nil {
		return nil
	}
	if err := reg.schema.Validate(v); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidArguments, reg.def.StableName, err)
	}
	return nil
}

func absent(args json.RawMessage) bool {
	trimmed := bytes.TrimSpace(args)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
