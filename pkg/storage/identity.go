package storage

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/limmweb/instagram-ai-commentator/models"
)

const (
	identityFile = "config.yaml"
	blobFile     = "session.json"
)

var (
	// ErrIdentityNotFound — в каталоге сессии нет файла конфигурации.
	ErrIdentityNotFound = errors.New("identity config not found")
	// ErrMissingCredentials — в конфигурации нет логина или пароля.
	ErrMissingCredentials = errors.New("identity config has no credentials")
	// ErrIdentityExists — сессия с таким именем уже создана.
	ErrIdentityExists = errors.New("identity config already exists")
)

// Identity — запись конфигурации одного контролируемого аккаунта:
// учётные данные, кэш профиля и учёт расхода OpenAI.
type Identity struct {
	Instagram IdentityInstagram `yaml:"instagram"`
	OpenAI    models.Usage      `yaml:"openai"`
	Session   IdentitySession   `yaml:"session"`
}

type IdentityInstagram struct {
	models.Credentials `yaml:",inline"`
	models.Profile     `yaml:",inline"`
}

type IdentitySession struct {
	Path string `yaml:"path"`
}

// IdentityStore читает и пишет запись конфигурации целиком.
type IdentityStore struct {
	Dir string
}

// NewIdentityStore возвращает хранилище для каталога сессии.
func NewIdentityStore(dir string) *IdentityStore {
	return &IdentityStore{Dir: dir}
}

// Path возвращает путь к файлу конфигурации.
func (s *IdentityStore) Path() string { return filepath.Join(s.Dir, identityFile) }

// BlobPath возвращает путь к сериализованной сессии платформы.
func (s *IdentityStore) BlobPath() string { return filepath.Join(s.Dir, blobFile) }

// Load загружает запись и проверяет наличие учётных данных.
func (s *IdentityStore) Load() (*Identity, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(ErrIdentityNotFound, "%s", s.Path())
	}
	if err != nil {
		return nil, errors.Wrap(err, "read identity config")
	}
	var id Identity
	if err := yaml.Unmarshal(data, &id); err != nil {
		return nil, errors.Wrap(err, "parse identity config")
	}
	if id.Instagram.Login == "" || id.Instagram.Password == "" {
		return nil, errors.Wrapf(ErrMissingCredentials, "%s", s.Path())
	}
	return &id, nil
}

// Save записывает запись целиком.
func (s *IdentityStore) Save(id *Identity) error {
	data, err := yaml.Marshal(id)
	if err != nil {
		return errors.Wrap(err, "encode identity config")
	}
	return persistence(writeFileAtomic(s.Path(), data), "write identity config")
}

// AddUsage добавляет расход вызова OpenAI: читаем запись, меняем учёт, пишем целиком.
func (s *IdentityStore) AddUsage(d models.UsageDelta) (models.Usage, error) {
	id, err := s.Load()
	if err != nil {
		return models.Usage{}, persistence(err, "load identity for usage")
	}
	id.OpenAI.Add(d)
	if err := s.Save(id); err != nil {
		return models.Usage{}, err
	}
	return id.OpenAI, nil
}

// UpdateProfile обновляет кэш профиля после повторного входа.
func (s *IdentityStore) UpdateProfile(p models.Profile) error {
	id, err := s.Load()
	if err != nil {
		return persistence(err, "load identity for profile")
	}
	id.Instagram.Profile = p
	return s.Save(id)
}

// ListIdentities возвращает имена сессий (подкаталоги sessionsDir) в алфавитном порядке.
func ListIdentities(sessionsDir string) ([]string, error) {
	entries, err := os.ReadDir(sessionsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CreateIdentityDir создаёт каталог новой сессии и возвращает хранилище для него.
// Каталог без config.yaml (прерванное создание) используется повторно,
// существующая конфигурация не перезаписывается.
func CreateIdentityDir(sessionsDir, name string) (*IdentityStore, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, errors.Errorf("invalid session name %q", name)
	}
	dir := filepath.Join(sessionsDir, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create session dir")
	}
	s := NewIdentityStore(dir)
	if _, err := os.Stat(s.Path()); err == nil {
		return nil, errors.Wrapf(ErrIdentityExists, "%s", s.Path())
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "stat identity config")
	}
	return s, nil
}
