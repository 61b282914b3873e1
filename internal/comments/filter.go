package comments

import (
	"time"
	"unicode/utf8"

	"github.com/limmweb/instagram-ai-commentator/models"
)

// Filter решает, подходит ли пост для комментария, только по типу медиа и длине подписи.
type Filter struct {
	AllowedTypes     []models.MediaType
	MinCaptionLength int
}

// Eligible — фото проходит при любой подписи, видео и альбомы только с подписью
// не короче MinCaptionLength символов.
func (f Filter) Eligible(p models.Post) bool {
	if !f.allowed(p.MediaType) {
		return false
	}
	if p.MediaType != models.MediaPhoto && utf8.RuneCountInString(p.CaptionText) < f.MinCaptionLength {
		return false
	}
	return true
}

func (f Filter) allowed(t models.MediaType) bool {
	for _, a := range f.AllowedTypes {
		if a == t {
			return true
		}
	}
	return false
}

// Fresh сообщает, что пост снят не раньше чем cutoff назад.
func Fresh(p models.Post, now time.Time, cutoff time.Duration) bool {
	return now.Sub(p.TakenAt) <= cutoff
}
