package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Language is a user-declared language read from languages.toml.
type Language struct {
	Name          string `toml:"name"`
	Extensions    string `toml:"extensions"`
	CommentMarker string `toml:"comment-marker"`
	IndentMarker  string `toml:"indent-marker"`
	IndentWidth   int    `toml:"indent-width"`
}

type Languages struct {
	Languages []Language `toml:"language"`
}

func LoadLanguages() (Languages, error) {
	path, err := LanguagesPath()
	if err != nil {
		return Languages{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Languages{}, nil
		}
		return Languages{}, err
	}

	var cfg Languages
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Languages{}, err
	}
	return cfg, nil
}

func LanguagesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "languages.toml"), nil
}
