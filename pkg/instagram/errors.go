package instagram

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// Kind — класс ошибки платформы. По нему политика повторов выбирает стратегию ожидания.
type Kind int

const (
	KindUnclassified Kind = iota
	KindRateLimited
	KindShortCooldown
	KindChallengeRequired
	KindTwoFactorRequired
	KindAuthenticationFailed
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindShortCooldown:
		return "short_cooldown"
	case KindChallengeRequired:
		return "challenge_required"
	case KindTwoFactorRequired:
		return "two_factor_required"
	case KindAuthenticationFailed:
		return "authentication_failed"
	default:
		return "unclassified"
	}
}

// Error — ошибка вызова платформы с уже определённым классом.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Type   string // exc_type из ответа шлюза
	Detail string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("instagram %s: %s (%s, status %d): %s", e.Op, e.Kind, e.Type, e.Status, e.Detail)
	}
	return fmt.Sprintf("instagram %s: %s (%s): %s", e.Op, e.Kind, e.Type, e.Detail)
}

// KindOf возвращает класс ошибки. Всё, что не *Error, считается неклассифицированным.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}

// IsKind сообщает, относится ли ошибка к указанному классу.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// classify сопоставляет ответ шлюза с классом ошибки.
func classify(status int, excType string) Kind {
	switch excType {
	case "RateLimitError", "ClientThrottledError", "ClientRequestTimeout":
		return KindRateLimited
	case "PleaseWaitFewMinutes":
		return KindShortCooldown
	case "ChallengeRequired", "ChallengeUnknownStep", "SelectContactPointRecoveryForm":
		return KindChallengeRequired
	case "TwoFactorRequired":
		return KindTwoFactorRequired
	case "BadPassword", "BadCredentials":
		return KindAuthenticationFailed
	}
	if status == http.StatusTooManyRequests {
		return KindRateLimited
	}
	return KindUnclassified
}
