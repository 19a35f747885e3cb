package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	baseURLVar        = "base_url"
	requestTimeoutVar = "request_timeout"
	queueTimeoutVar   = "queue_timeout"
	refreshPathVar    = "refresh_path"
	loginPathVar      = "login_path"
	logoutPathVar     = "logout_path"
	loginRouteVar     = "login_route"
)

type ClientConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetQueueTimeout() time.Duration
	GetRefreshPath() string
	GetLoginPath() string
	GetLogoutPath() string
	GetLoginRoute() string
}

type Client struct {
	v *viper.Viper
}

var _ ClientConfig = Client{}

func setClientDefaults(v *viper.Viper) {
	v.SetDefault(baseURLVar, "http://localhost:8080/api")
	v.SetDefault(requestTimeoutVar, 10*time.Second)
	v.SetDefault(queueTimeoutVar, 15*time.Second)
	v.SetDefault(refreshPathVar, "/auth/refresh")
	v.SetDefault(loginPathVar, "/auth/login")
	v.SetDefault(logoutPathVar, "/auth/logout")
	v.SetDefault(loginRouteVar, "/login")
}

// GetBaseURL returns the API root every request path is resolved against
func (c Client) GetBaseURL() string {
	return strings.TrimRight(c.v.GetString(baseURLVar), "/")
}

func (c Client) GetRequestTimeout() time.Duration {
	return c.v.GetDuration(requestTimeoutVar)
}

// GetQueueTimeout bounds how long a request waits for an in-flight refresh
func (c Client) GetQueueTimeout() time.Duration {
	return c.v.GetDuration(queueTimeoutVar)
}

func (c Client) GetRefreshPath() string {
	return c.v.GetString(refreshPathVar)
}

func (c Client) GetLoginPath() string {
	return c.v.GetString(loginPathVar)
}

func (c Client) GetLogoutPath() string {
	return c.v.GetString(logoutPathVar)
}

func (c Client) GetLoginRoute() string {
	return c.v.GetString(loginRouteVar)
}
