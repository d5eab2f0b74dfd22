package internal

// Config is where a client finds the locker server.
type Config struct {
	Host string
	Port int
}

const DEFAULT_HOST = "127.0.0.1"
const DEFAULT_PORT = 6969

func DefaultConfig() *Config {
	return &Config{
		Host: DEFAULT_HOST,
		Port: DEFAULT_PORT,
	}
}
