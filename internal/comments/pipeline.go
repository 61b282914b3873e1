package comments

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/models"
)

// ErrContentRejected — модель отказалась описывать изображение, пост пропускается.
var ErrContentRejected = errors.New("content rejected by safety filter")

// refusalPhrases ищутся в описании без учёта регистра.
var refusalPhrases = []string{"i'm sorry", "i am sorry", "i can't", "i can not", "i cannot"}

// AI — сервис генерации текста.
type AI interface {
	DescribeImage(ctx context.Context, imageURL string) (string, models.UsageDelta, error)
	GenerateComment(ctx context.Context, caption, description string) (string, models.UsageDelta, error)
}

// Ledger хранит учёт расхода токенов.
type Ledger interface {
	AddUsage(d models.UsageDelta) (models.Usage, error)
}

// Generation — результат обработки одного поста.
type Generation struct {
	Comment     string
	Description string
	// Usage — расход всех вызовов по этому посту.
	Usage models.UsageDelta
}

// Pipeline описывает изображение, проверяет отказ модели и генерирует комментарий.
type Pipeline struct {
	AI     AI
	Ledger Ledger
	Log    *zap.Logger
}

// Generate возвращает пустой комментарий, если пост нужно пропустить.
// Ошибки сервиса только логируются; наружу выходят ErrContentRejected и ошибки записи учёта.
func (p *Pipeline) Generate(ctx context.Context, post models.Post) (Generation, error) {
	var gen Generation
	log := p.logger().With(zap.String("post", post.ID))

	if post.MediaType == models.MediaPhoto {
		desc, usage, err := p.AI.DescribeImage(ctx, post.ThumbnailURL)
		if err != nil {
			log.Error("[PIPELINE] ошибка описания изображения", zap.Error(err))
			return Generation{}, nil
		}
		gen.Usage = gen.Usage.Plus(usage)
		if err := p.record(usage); err != nil {
			return gen, err
		}
		log.Info("[PIPELINE] описание изображения", zap.String("description", preview(desc)))
		if refused(desc) {
			log.Info("[PIPELINE] модель отказалась описывать изображение, пропускаем пост")
			gen.Description = desc
			return gen, ErrContentRejected
		}
		gen.Description = desc
	}

	comment, usage, err := p.AI.GenerateComment(ctx, post.CaptionText, gen.Description)
	if err != nil {
		log.Error("[PIPELINE] ошибка генерации комментария", zap.Error(err))
		return Generation{Description: gen.Description, Usage: gen.Usage}, nil
	}
	gen.Usage = gen.Usage.Plus(usage)
	if err := p.record(usage); err != nil {
		return gen, err
	}
	gen.Comment = strings.TrimSpace(comment)
	log.Info("[PIPELINE] комментарий сгенерирован", zap.String("comment", preview(gen.Comment)))
	return gen, nil
}

func (p *Pipeline) record(d models.UsageDelta) error {
	total, err := p.Ledger.AddUsage(d)
	if err != nil {
		p.logger().Error("[PIPELINE] не удалось сохранить учёт расхода", zap.Error(err))
		return errors.Wrap(err, "record usage")
	}
	p.logger().Debug("[PIPELINE] учёт расхода обновлён",
		zap.Int64("total_tokens", total.TotalTokens), zap.Float64("cost", total.Cost))
	return nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

func refused(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// preview обрезает текст для журнала.
func preview(s string) string {
	const limit = 60
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
