package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/limmweb/instagram-ai-commentator/models"
)

const (
	DefaultModel        = "gpt-4o-mini"
	DefaultCostPerToken = 0.00000035

	describePrompt = "Please very precisely describe this Instagram image, focusing on the style of depicting, " +
		"guessing the mood, interpreting the meaning, and admitting any unique traits. If the image contains text, " +
		"then scan it and include text unchanged into the description."

	DefaultPersona = "You are writing comments for Instagram posts of your followings. About you: You are witty art " +
		"creator Alexander. You do create engaging, narrative-rich, sometimes with humor, comments that resonate " +
		"emotionally and intellectually with the audience and, importantly, complementing autor of publication " +
		"and his/her post in particular."
)

// Config — параметры обращения к OpenAI.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	CostPerToken      float64
	DescribeMaxTokens int64
	CommentMaxTokens  int64
	Persona           string
	FallbackLanguage  language.Tag
	MaxRetries        int
}

// Client генерирует описания изображений и комментарии.
type Client struct {
	api      openai.Client
	cfg      Config
	fallback string
}

// New создаёт клиента OpenAI, дополняя пустые параметры значениями по умолчанию.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.CostPerToken == 0 {
		cfg.CostPerToken = DefaultCostPerToken
	}
	if cfg.DescribeMaxTokens == 0 {
		cfg.DescribeMaxTokens = 300
	}
	if cfg.CommentMaxTokens == 0 {
		cfg.CommentMaxTokens = 120
	}
	if cfg.Persona == "" {
		cfg.Persona = DefaultPersona
	}
	if cfg.FallbackLanguage == language.Und {
		cfg.FallbackLanguage = language.English
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:      openai.NewClient(opts...),
		cfg:      cfg,
		fallback: LanguageName(cfg.FallbackLanguage),
	}
}

// LanguageName возвращает английское название языка для подстановки в промпт.
func LanguageName(tag language.Tag) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

// DescribeImage описывает изображение по ссылке на превью.
func (c *Client) DescribeImage(ctx context.Context, imageURL string) (string, models.UsageDelta, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(describePrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
			}),
		},
		MaxTokens: openai.Int(c.cfg.DescribeMaxTokens),
	})
	if err != nil {
		return "", models.UsageDelta{}, errors.Wrap(err, "describe image")
	}
	return c.result(resp)
}

// GenerateComment пишет комментарий по подписи поста и описанию изображения.
func (c *Client) GenerateComment(ctx context.Context, caption, description string) (string, models.UsageDelta, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.cfg.Persona),
			openai.SystemMessage(c.commentContext(caption, description)),
		},
		MaxTokens: openai.Int(c.cfg.CommentMaxTokens),
	})
	if err != nil {
		return "", models.UsageDelta{}, errors.Wrap(err, "generate comment")
	}
	return c.result(resp)
}

func (c *Client) commentContext(caption, description string) string {
	return fmt.Sprintf(
		"'Post caption': '%s', 'Post Image Description (AI-estimation)': '%s', "+
			"'Comment Language': 'Equal to Post Caption language, otherwise %s', "+
			"'Comment Length': 30 - 120 symbols, "+
			"'Additional Rules': 'Use \"About you\" as reference for comment styling indirectly, do not reuse info "+
			"About you directly in commentaries you produce; Rarely use emojis; Never use #hashtags.'",
		caption, description, c.fallback,
	)
}

func (c *Client) result(resp *openai.ChatCompletion) (string, models.UsageDelta, error) {
	usage := models.NewUsageDelta(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, c.cfg.CostPerToken)
	if len(resp.Choices) == 0 {
		return "", usage, errors.New("empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}
