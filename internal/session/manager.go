package session

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/internal/retry"
	"github.com/limmweb/instagram-ai-commentator/models"
	"github.com/limmweb/instagram-ai-commentator/pkg/instagram"
	"github.com/limmweb/instagram-ai-commentator/pkg/notify"
	"github.com/limmweb/instagram-ai-commentator/pkg/storage"
)

// State — состояние авторизации на платформе.
type State int32

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Recreating
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Recreating:
		return "recreating"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Manager владеет сессией платформы одного аккаунта: восстанавливает её при старте,
// выполняет вход и полностью пересоздаёт сессию после неизвестных ошибок.
type Manager struct {
	Client   instagram.Client
	Identity *storage.IdentityStore
	Blob     *storage.SessionBlob
	Policy   *retry.Policy
	Notifier notify.Notifier
	Log      *zap.Logger

	creds models.Credentials
	state atomic.Int32
}

// NewManager создаёт менеджер; файл сессии лежит рядом с записью конфигурации.
func NewManager(client instagram.Client, identity *storage.IdentityStore, policy *retry.Policy, n notify.Notifier, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		Client:   client,
		Identity: identity,
		Blob:     storage.NewSessionBlob(identity.BlobPath()),
		Policy:   policy,
		Notifier: n,
		Log:      log,
	}
}

// State возвращает текущее состояние.
func (m *Manager) State() State { return State(m.state.Load()) }

func (m *Manager) setState(s State) {
	prev := State(m.state.Swap(int32(s)))
	if prev != s {
		m.Log.Debug("[SESSION] смена состояния", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// Start загружает учётные данные и входит в аккаунт. Сначала пробует сохранённую
// сессию, при любой неудаче выполняет полный вход.
func (m *Manager) Start(ctx context.Context) error {
	id, err := m.Identity.Load()
	if err != nil {
		return err
	}
	m.creds = id.Instagram.Credentials
	m.setState(Authenticating)

	if m.restore(ctx) {
		m.Log.Info("[SESSION] сессия восстановлена из файла", zap.String("login", m.creds.Login))
		return m.authenticated(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.Client.ResetSettings()
	if err := m.login(ctx); err != nil {
		return err
	}
	m.Log.Info("[SESSION] выполнен вход по логину и паролю", zap.String("login", m.creds.Login))
	return m.authenticated(ctx)
}

// restore пробует лёгкий повторный вход с сохранёнными настройками клиента.
func (m *Manager) restore(ctx context.Context) bool {
	blob, ok, err := m.Blob.Load(ctx)
	if err != nil {
		m.Log.Warn("[SESSION] не удалось прочитать файл сессии", zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := m.Client.LoadSettings(blob); err != nil {
		m.Log.Warn("[SESSION] файл сессии повреждён", zap.Error(err))
		return false
	}
	if err := m.Client.Login(ctx, m.creds); err != nil {
		m.Log.Warn("[SESSION] сохранённая сессия не принята, выполняем полный вход", zap.Error(err))
		return false
	}
	return true
}

func (m *Manager) login(ctx context.Context) error {
	return m.Policy.Do(ctx, "login", retry.ModeLogin, func(ctx context.Context) error {
		return m.Client.Login(ctx, m.creds)
	})
}

// authenticated сохраняет сессию на диск сразу после успешного входа.
func (m *Manager) authenticated(ctx context.Context) error {
	data, err := m.Client.DumpSettings()
	if err != nil {
		return errors.Wrap(err, "dump session")
	}
	if err := m.Blob.StoreSession(ctx, data); err != nil {
		return err
	}
	m.setState(Authenticated)
	return nil
}

// Recreate выходит из аккаунта, удаляет файл сессии и входит заново теми же
// учётными данными. Выход повторяется, пока не удастся; после каждой неудачи
// ждём оператора. После входа обновляется кэш профиля в записи конфигурации.
func (m *Manager) Recreate(ctx context.Context) error {
	m.setState(Recreating)
	m.Log.Warn("[SESSION] пересоздание сессии", zap.String("login", m.creds.Login))
	notify.Send(ctx, m.Notifier, m.Log, fmt.Sprintf("[SESSION] пересоздание сессии %s", m.creds.Login))

	for {
		err := m.Client.Logout(ctx)
		if err == nil {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		m.Log.Error("[SESSION] не удалось выйти из аккаунта", zap.Error(err))
		if err := m.awaitOperator(ctx, fmt.Sprintf("logout: %v", err)); err != nil {
			return err
		}
	}

	if err := m.Blob.Delete(); err != nil {
		return err
	}
	m.Client.ResetSettings()
	m.setState(Authenticating)

	if err := m.login(ctx); err != nil {
		return err
	}
	profile, err := m.fetchProfile(ctx)
	if err != nil {
		return err
	}
	if err := m.authenticated(ctx); err != nil {
		return err
	}
	if err := m.Identity.UpdateProfile(profile); err != nil {
		return err
	}
	m.Log.Info("[SESSION] сессия пересоздана", zap.String("username", profile.Username), zap.String("id", profile.ID))
	return nil
}

// fetchProfile не может использовать ModeFetch: неизвестная ошибка снова запустила бы пересоздание.
func (m *Manager) fetchProfile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := m.Policy.Do(ctx, "user_info_by_username", retry.ModeLogin, func(ctx context.Context) error {
		var err error
		p, err = m.Client.UserInfoByUsername(ctx, m.creds.Login)
		return err
	})
	if p.ID == "" {
		p.ID = m.Client.UserID()
	}
	return p, err
}

func (m *Manager) awaitOperator(ctx context.Context, reason string) error {
	if m.Policy == nil || m.Policy.Operator == nil {
		return errors.Errorf("operator required: %s", reason)
	}
	return m.Policy.Operator.AwaitResume(ctx, reason)
}

// Create заводит новую запись: вход, профиль, запись конфигурации с нулевым
// учётом расхода и файл сессии. Identity должен указывать на новый каталог.
func (m *Manager) Create(ctx context.Context, creds models.Credentials) error {
	if creds.Login == "" || creds.Password == "" {
		return storage.ErrMissingCredentials
	}
	m.creds = creds
	m.setState(Authenticating)
	m.Client.ResetSettings()
	if err := m.login(ctx); err != nil {
		return err
	}
	profile, err := m.fetchProfile(ctx)
	if err != nil {
		return err
	}
	id := &storage.Identity{}
	id.Instagram.Credentials = creds
	id.Instagram.Profile = profile
	id.Session.Path = m.Identity.BlobPath()
	if err := m.Identity.Save(id); err != nil {
		return err
	}
	if err := m.authenticated(ctx); err != nil {
		return err
	}
	m.Log.Info("[SESSION] создана новая сессия", zap.String("username", profile.Username), zap.String("dir", m.Identity.Dir))
	return nil
}

// Username возвращает имя аккаунта из записи конфигурации, а если профиль
// ещё не заполнен, то логин.
func (m *Manager) Username() string {
	if id, err := m.Identity.Load(); err == nil && id.Instagram.Username != "" {
		return id.Instagram.Username
	}
	return m.creds.Login
}
