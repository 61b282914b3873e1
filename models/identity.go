package models

// Credentials — логин и пароль контролируемого аккаунта Instagram.
type Credentials struct {
	Login    string `yaml:"login" json:"login"`
	Password string `yaml:"password" json:"-"`
}

// Profile кэширует публичные данные аккаунта после успешного входа.
type Profile struct {
	ID         string `yaml:"id" json:"id"`
	Username   string `yaml:"username" json:"username"`
	FullName   string `yaml:"full_name" json:"full_name"`
	ProfilePic string `yaml:"profile_pic" json:"profile_pic"`
	Biography  string `yaml:"biography" json:"biography"`
}
