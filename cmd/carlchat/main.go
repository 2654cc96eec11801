package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"

	"github.com/benefitsnav/carl-assistant/internal/assistant"
	appconfig "github.com/benefitsnav/carl-assistant/internal/config"
	"github.com/benefitsnav/carl-assistant/internal/directory"
	"github.com/benefitsnav/carl-assistant/internal/privacy"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

// carlchat is a terminal harness for exercising the full answering pipeline
// against live backends without standing up the API server.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New("warn")
	ctx := context.Background()

	resolver, err := privacy.NewResolver(privacy.Config{
		DirectURL:     cfg.DirectURL,
		CDNFrontURL:   cfg.CDNFrontURL,
		ReflectorURL:  cfg.ReflectorURL,
		ReflectorPath: cfg.ReflectorPath,
		TorSocksAddr:  cfg.TorSocksAddr,
	}, nil, logger)
	if err != nil {
		log.Fatalf("privacy resolver: %v", err)
	}

	intentClient, intentModel, err := buildIntentClient(ctx, cfg)
	if err != nil {
		log.Fatalf("intent backend: %v", err)
	}

	orch := assistant.NewOrchestrator(assistant.OrchestratorDeps{
		Resolver:     resolver,
		IntentParser: assistant.NewIntentParser(intentClient, intentModel, logger),
		Searcher:     directory.NewClient(cfg.SearchBaseURL, nil, logger),
		Composer:     assistant.NewComposer(cfg.ComposeModelID, logger),
		ComposeClient: func(endpoint privacy.EndpointDescriptor, channel *privacy.Channel) assistant.LLMClient {
			return assistant.NewOpenAIClient(cfg.ComposeAPIKey, cfg.ComposeModelID, endpoint.BaseURL, channel.HTTP)
		},
		Logger: logger,
	})

	mode := privacy.ModeStandard
	var history []assistant.Turn

	fmt.Println("carl chat harness")
	fmt.Println("commands: /tor /direct /reset /quit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/reset":
			history = nil
			fmt.Println("(history cleared)")
			continue
		case "/direct":
			mode = privacy.ModeStandard
			fmt.Println("(standard mode)")
			continue
		case "/tor":
			if cfg.TorSocksAddr == "" {
				fmt.Println("(TOR_SOCKS_ADDR not set)")
				continue
			}
			orch.ConfigureTorProxy(cfg.TorSocksAddr)
			mode = privacy.ModeTor
			fmt.Println("(tor mode)")
			continue
		}

		start := time.Now()
		res, err := orch.Search(ctx, assistant.SearchRequest{
			Message: line,
			History: history,
			Mode:    mode,
		})
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			fmt.Printf("error (%v): %v\n", elapsed, err)
			continue
		}

		fmt.Printf("carl [%s, %v]> %s\n", res.Tier, elapsed, res.Message)
		for _, p := range res.Programs {
			fmt.Printf("  - %s (%s)\n", p.Name, p.Phone)
		}

		history = append(history,
			assistant.Turn{Role: assistant.RoleUser, Text: line},
			assistant.Turn{Role: assistant.RoleAssistant, Text: res.Message},
		)
	}
}

func buildIntentClient(ctx context.Context, cfg *appconfig.Config) (assistant.LLMClient, string, error) {
	if cfg.IntentProvider == "bedrock" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, "", err
		}
		return assistant.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), cfg.BedrockModelID, nil
	}
	client, err := assistant.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, "", err
	}
	return client, cfg.GeminiModelID, nil
}
