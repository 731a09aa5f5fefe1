package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	JWT     JWT     `envPrefix:"JWT_"`
	Order   Order   `envPrefix:"ORDER_"`
	Gateway Gateway `envPrefix:"GATEWAY_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type JWT struct {
	Secret string `env:"SECRET" envDefault:"dev-secret-change-me"`
}

type Order struct {
	// LegacyPaidDefault restores the original platform behavior of creating
	// orders with payment_status=paid before any payment attempt exists.
	// New deployments should leave this off so orders start unpaid.
	LegacyPaidDefault bool `env:"LEGACY_PAID_DEFAULT" envDefault:"false"`
}

type Gateway struct {
	// DelayScale scales the simulated gateway latency band. 1.0 keeps the
	// 1.5-2.5s band, 0 disables delays entirely.
	DelayScale float64 `env:"DELAY_SCALE" envDefault:"1.0"`
}
