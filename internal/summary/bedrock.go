package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tidwall/gjson"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	// MaxBedrockInput bounds the text sent to the model.
	MaxBedrockInput = 200000

	bedrockPrompt = "You are a geologist writing a report. Please provide a paragraph summary of the following text. " +
		"Do not add any information that is not mentioned in the text below.\n\n<text>\n%s\n</text>"
)

// InvokeModelAPI is the part of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock summarises with an Anthropic model hosted on AWS Bedrock.
type Bedrock struct {
	api     InvokeModelAPI
	modelID string
}

// NewBedrock loads AWS credentials from the default chain.
func NewBedrock(ctx context.Context, region, modelID string) (*Bedrock, error) {
	if region == "" {
		return nil, fmt.Errorf("bedrock summaries require a region")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewBedrockWithAPI(bedrockruntime.NewFromConfig(cfg), modelID), nil
}

// NewBedrockWithAPI wraps an existing runtime client.
func NewBedrockWithAPI(api InvokeModelAPI, modelID string) *Bedrock {
	return &Bedrock{api: api, modelID: modelID}
}

func (b *Bedrock) Name() string { return "the " + b.modelID + " model on AWS Bedrock" }

type anthropicRequest struct {
	AnthropicVersion string        `json:"anthropic_version"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	Messages         []chatMessage `json:"messages"`
}

// Summarize implements Summarizer.
func (b *Bedrock) Summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        300,
		Temperature:      0.1,
		TopP:             0.9,
		Messages: []chatMessage{{
			Role:    "user",
			Content: fmt.Sprintf(bedrockPrompt, truncate(text, MaxBedrockInput)),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("error encoding bedrock request: %w", err)
	}

	out, err := b.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("error invoking %s: %w", b.modelID, err)
	}

	var parts []string
	gjson.GetBytes(out.Body, "content").ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			parts = append(parts, block.Get("text").String())
		}
		return true
	})
	if len(parts) == 0 {
		return "", fmt.Errorf("bedrock response has no text content")
	}
	return clean(strings.Join(parts, "\n")), nil
}
