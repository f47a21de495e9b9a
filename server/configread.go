package server

import (
	"io"
	"os"
	"strconv"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

func ReadConfigFile(filename string, c *Config) (err error) {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Annotatef(err, "read config file: %s", filename)
	}

	defer f.Close()

	err = ReadConfigYAML(f, c)

	return errors.Annotatef(err, "read yaml config: %s", filename)
}

func ReadConfigFiles(filenames []string, c *Config) (err error) {
	for _, filename := range filenames {
		err = ReadConfigFile(filename, c)
		if err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}

func InitConfig(c *Config) {
	c.BindPort = 3000
	c.Store.Type = StoreTypeMemory
	c.Conn.InitialState = "closed"
}

func ReadConfig(filenames []string) (c Config, err error) {
	InitConfig(&c)
	err = ReadConfigFiles(filenames, &c)
	ReadConfigFromEnv("CONNSTATE_", &c)

	return c, errors.Trace(err)
}

func ReadConfigYAML(reader io.Reader, c *Config) error {
	decoder := yaml.NewDecoder(reader)
	if err := decoder.Decode(c); err != nil {
		return errors.Annotatef(err, "decode yaml")
	}

	return nil
}

func ReadConfigFromEnv(prefix string, c *Config) {
	setEnvString(&c.BaseURL, prefix+"BASE_URL")
	setEnvString(&c.BindHost, prefix+"BIND_HOST")
	setEnvInt(&c.BindPort, prefix+"BIND_PORT")
	setEnvString(&c.TLS.Cert, prefix+"TLS_CERT")
	setEnvString(&c.TLS.Key, prefix+"TLS_KEY")

	setEnvStoreType(&c.Store.Type, prefix+"STORE_TYPE")
	setEnvString(&c.Store.Redis.Host, prefix+"STORE_REDIS_HOST")
	setEnvInt(&c.Store.Redis.Port, prefix+"STORE_REDIS_PORT")
	setEnvString(&c.Store.Redis.Prefix, prefix+"STORE_REDIS_PREFIX")

	setEnvString(&c.Conn.InitialState, prefix+"CONN_INITIAL_STATE")

	setEnvString(&c.Prometheus.AccessToken, prefix+"PROMETHEUS_ACCESS_TOKEN")
}

func setEnvString(dest *string, name string) {
	value := os.Getenv(name)
	if value != "" {
		*dest = value
	}
}

func setEnvInt(dest *int, name string) {
	value, err := strconv.Atoi(os.Getenv(name))
	if err == nil {
		*dest = value
	}
}

func setEnvStoreType(storeType *StoreType, name string) {
	value := os.Getenv(name)
	switch StoreType(value) {
	case StoreTypeRedis:
		*storeType = StoreTypeRedis
	case StoreTypeMemory:
		*storeType = StoreTypeMemory
	}
}
