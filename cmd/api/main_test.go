package main

import (
	"context"
	"testing"

	appconfig "github.com/benefitsnav/carl-assistant/internal/config"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

func TestBuildIntentClientGeminiDefault(t *testing.T) {
	cfg := &appconfig.Config{
		IntentProvider: "gemini",
		GeminiAPIKey:   "test-key",
		GeminiModelID:  "gemini-2.5-flash",
	}

	client, model, err := buildIntentClient(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("buildIntentClient returned error: %v", err)
	}
	if client == nil {
		t.Fatal("expected a client")
	}
	if model != "gemini-2.5-flash" {
		t.Errorf("expected gemini model id, got %q", model)
	}
}

func TestBuildIntentClientBedrock(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	cfg := &appconfig.Config{
		IntentProvider: "bedrock",
		AWSRegion:      "us-east-1",
		BedrockModelID: "anthropic.claude-3-haiku",
	}

	client, model, err := buildIntentClient(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("buildIntentClient returned error: %v", err)
	}
	if client == nil {
		t.Fatal("expected a client")
	}
	if model != "anthropic.claude-3-haiku" {
		t.Errorf("expected bedrock model id, got %q", model)
	}
}

func TestBuildIntentClientGeminiWithBedrockFallback(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	cfg := &appconfig.Config{
		IntentProvider: "gemini",
		GeminiAPIKey:   "test-key",
		GeminiModelID:  "gemini-2.5-flash",
		AWSRegion:      "us-east-1",
		BedrockModelID: "anthropic.claude-3-haiku",
	}

	client, model, err := buildIntentClient(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("buildIntentClient returned error: %v", err)
	}
	if client == nil {
		t.Fatal("expected a client")
	}
	// Each provider in the chain supplies its own default model.
	if model != "" {
		t.Errorf("expected empty model id for the fallback chain, got %q", model)
	}
}
