package store

import (
	"net"
	"strconv"
)

// Redis settings keys.
const (
	KeyHost     = "host"
	KeyPort     = "port"
	KeySSL      = "ssl"
	KeyPassword = "password"
)

// RedisConfig is the connection configuration of a single-node Redis store.
type RedisConfig struct {
	Host     string
	Port     int
	SSL      bool
	Password string
}

// RedisVariant decodes REDIS stores.
func RedisVariant() Variant {
	return Variant{
		Tag:      TypeRedis,
		Required: []string{KeyHost, KeyPort},
		Optional: []string{KeySSL, KeyPassword},
		Decode: func(s Settings) (ConnectionConfig, error) {
			return decodeRedis(s)
		},
	}
}

func decodeRedis(s Settings) (RedisConfig, error) {
	var c RedisConfig
	var err error
	if c.Host, err = s.RequireNonBlank(KeyHost); err != nil {
		return RedisConfig{}, err
	}
	if c.Port, err = s.PositiveInt(KeyPort); err != nil {
		return RedisConfig{}, err
	}
	if c.SSL, err = s.Bool(KeySSL, false); err != nil {
		return RedisConfig{}, err
	}
	c.Password = s.String(KeyPassword, "")
	return c, nil
}

func (RedisConfig) StoreType() string { return TypeRedis }

// Addr is the host:port dial address.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c RedisConfig) Settings() map[string]string {
	m := map[string]string{
		KeyHost: c.Host,
		KeyPort: strconv.Itoa(c.Port),
		KeySSL:  strconv.FormatBool(c.SSL),
	}
	if c.Password != "" {
		m[KeyPassword] = c.Password
	}
	return m
}
