package models

// Statistics — сводка состояния сессии для статус-API.
type Statistics struct {
	Session        string `json:"session"`         // Имя сессии (каталог в Sessions)
	Username       string `json:"username"`        // Аккаунт, от имени которого комментируем
	Usage          Usage  `json:"usage"`           // Накопленный расход OpenAI
	QueueLength    int    `json:"queue_length"`    // Количество подписок в очереди
	QueueHead      string `json:"queue_head"`      // Аккаунт, который будет обработан следующим
	CommentedPosts int    `json:"commented_posts"` // Записей в журнале прокомментированных постов
}
