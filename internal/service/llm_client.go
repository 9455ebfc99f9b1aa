package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMClient is the adapter for upstream text and vision model calls.
// Every call is recorded in the AI call log on an independent session;
// failed calls are not retried, callers supply their own defaults.
type LLMClient interface {
	Generate(ctx context.Context, callType, prompt string, userID *int64) (string, error)
	GenerateVision(ctx context.Context, callType, prompt string, images [][]byte, userID *int64) (string, error)
}

type llmClient struct {
	client  *openai.Client
	cfg     *config.AIConfig
	logRepo repository.AICallLogRepository
}

// NewLLMClient creates the adapter. logRepo may be nil, disabling call logs.
func NewLLMClient(cfg *config.AIConfig, logRepo repository.AICallLogRepository) LLMClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	return &llmClient{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		logRepo: logRepo,
	}
}

func (c *llmClient) Generate(ctx context.Context, callType, prompt string, userID *int64) (string, error) {
	timeout := c.cfg.TextTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.cfg.TextModel,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	return c.finish(callType, c.cfg.TextModel, prompt, resp, err, start, userID)
}

func (c *llmClient) GenerateVision(ctx context.Context, callType, prompt string, images [][]byte, userID *int64) (string, error) {
	timeout := c.cfg.VisionTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.cfg.VisionModel,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	return c.finish(callType, c.cfg.VisionModel, prompt, resp, err, start, userID)
}

// finish extracts the content, records the call log and maps failures to
// the upstream error class.
func (c *llmClient) finish(callType, modelID, prompt string, resp openai.ChatCompletionResponse, err error, start time.Time, userID *int64) (string, error) {
	latency := time.Since(start).Milliseconds()

	if err != nil {
		c.record(callType, modelID, prompt, "", false, err.Error(), latency, nil, userID)
		return "", apperrors.Wrap(err, apperrors.ErrExternalService, "外部AI服务调用失败")
	}
	if len(resp.Choices) == 0 {
		structErr := fmt.Errorf("模型响应缺少choices字段")
		c.record(callType, modelID, prompt, "", false, structErr.Error(), latency, nil, userID)
		return "", apperrors.Wrap(structErr, apperrors.ErrExternalService, "外部AI服务响应结构异常")
	}

	content := resp.Choices[0].Message.Content
	var tokens *int
	if resp.Usage.TotalTokens > 0 {
		t := resp.Usage.TotalTokens
		tokens = &t
	}
	c.record(callType, modelID, prompt, content, true, "", latency, tokens, userID)
	return content, nil
}

// record writes the call log asynchronously on a fresh context so it never
// joins the caller's transaction or deadline. Sink failures are swallowed.
func (c *llmClient) record(callType, modelID, input, output string, success bool, errMsg string, latency int64, tokens *int, userID *int64) {
	if c.logRepo == nil {
		return
	}
	entry := &model.AICallLog{
		UserID:        userID,
		CallType:      callType,
		Model:         modelID,
		InputSummary:  model.TruncateSummary(input),
		OutputSummary: model.TruncateSummary(output),
		Success:       success,
		LatencyMS:     latency,
		TokenCount:    tokens,
	}
	if errMsg != "" {
		msg := model.TruncateError(errMsg)
		entry.ErrorMessage = &msg
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.logRepo.Create(ctx, entry); err != nil {
			logger.Warn("AI调用日志写入失败",
				zap.String("call_type", callType),
				zap.Error(err))
		}
	}()
}
