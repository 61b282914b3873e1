package models

import "time"

// MediaType — тип публикации в терминах Instagram private API.
type MediaType int

const (
	MediaPhoto MediaType = 1
	MediaVideo MediaType = 2
	MediaAlbum MediaType = 8
)

// Post — публикация отслеживаемого аккаунта, полученная на текущей итерации.
// Между итерациями сохраняется только её ID (в журнале прокомментированных).
type Post struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	MediaType    MediaType `json:"media_type"`
	CaptionText  string    `json:"caption_text"`
	TakenAt      time.Time `json:"taken_at"`
	ThumbnailURL string    `json:"thumbnail_url"`
}

// URL возвращает публичную ссылку на пост.
func (p Post) URL() string {
	return "https://instagram.com/p/" + p.Code
}
