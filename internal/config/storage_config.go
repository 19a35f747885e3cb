package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	storageVar         = "storage"
	tokenFileVar       = "token_file"
	tokenPassphraseVar = "token_passphrase"
	redisAddrVar       = "redis_addr"
	redisDBVar         = "redis_db"
	redisPasswordVar   = "redis_password"
	redisPrefixVar     = "redis_prefix"
)

type StorageConfig interface {
	GetStorageBackend() string
	GetTokenFile() string
	GetTokenPassphrase() string
	GetRedisAddr() string
	GetRedisDB() int
	GetRedisPassword() string
	GetRedisPrefix() string
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func setStorageDefaults(v *viper.Viper) {
	v.SetDefault(storageVar, "file")
	v.SetDefault(tokenFileVar, filepath.Join("~", ".bankclient", "tokens.json"))
	v.SetDefault(redisAddrVar, "127.0.0.1:6379")
	v.SetDefault(redisDBVar, 0)
	v.SetDefault(redisPrefixVar, "bankclient:")
}

// GetStorageBackend is one of memory, file or redis
func (s Storage) GetStorageBackend() string {
	return strings.ToLower(s.v.GetString(storageVar))
}

// GetTokenFile returns the token file path with a leading ~ expanded
func (s Storage) GetTokenFile() string {
	path := s.v.GetString(tokenFileVar)
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// GetTokenPassphrase enables at-rest encryption of the token file when set
func (s Storage) GetTokenPassphrase() string {
	return s.v.GetString(tokenPassphraseVar)
}

func (s Storage) GetRedisAddr() string {
	return s.v.GetString(redisAddrVar)
}

func (s Storage) GetRedisDB() int {
	return s.v.GetInt(redisDBVar)
}

func (s Storage) GetRedisPassword() string {
	return s.v.GetString(redisPasswordVar)
}

func (s Storage) GetRedisPrefix() string {
	return s.v.GetString(redisPrefixVar)
}
