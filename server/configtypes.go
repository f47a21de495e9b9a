package server

type TLSConfig struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

type RedisConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Prefix string `yaml:"prefix"`
}

type StoreConfig struct {
	Type  StoreType   `yaml:"type"`
	Redis RedisConfig `yaml:"redis"`
}

type ConnConfig struct {
	// InitialState is the state newly created connections start in when the
	// create request does not name one. One of: closed, listening,
	// established.
	InitialState string `yaml:"initial_state"`
}

type PrometheusConfig struct {
	AccessToken string `yaml:"access_token"`
}

type Config struct {
	BaseURL    string           `yaml:"base_url"`
	BindHost   string           `yaml:"bind_host"`
	BindPort   int              `yaml:"bind_port"`
	TLS        TLSConfig        `yaml:"tls"`
	Store      StoreConfig      `yaml:"store"`
	Conn       ConnConfig       `yaml:"conn"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}
