package main

import (
	"context"
	"fmt"

	"github.com/Daxiongmao87/termaite-go/internal/llmclient"
	"github.com/Daxiongmao87/termaite-go/internal/payload"
)

// llmDescriptionRequester implements permission.DescriptionRequester by
// sending a one-shot "describe" phase payload through the same
// Payload Builder and LLM Client the task engine uses.
type llmDescriptionRequester struct {
	builder *payload.Builder
	llm     *llmclient.Client
}

func (r *llmDescriptionRequester) DescribeCommand(ctx context.Context, head, helpText string) (string, error) {
	prompt := fmt.Sprintf("command: %s\n\nhelp output:\n%s", head, helpText)

	body, err := r.builder.Build(payload.PhaseDescribe, prompt)
	if err != nil {
		return "", fmt.Errorf("build describe payload: %w", err)
	}

	raw, err := r.llm.Send(ctx, body)
	if err != nil {
		return "", fmt.Errorf("describe phase: %w", err)
	}
	return raw, nil
}
