package httputil

import "github.com/gin-gonic/gin"

// RespondError отвечает ошибкой в формате {"error": msg} и прерывает цепочку обработчиков.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
