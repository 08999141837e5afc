package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	Database  Database  `envPrefix:"DATABASE_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	AMQP      AMQP      `envPrefix:"AMQP_"`
	Checkout  Checkout  `envPrefix:"CHECKOUT_"`
	Tokens    Tokens    `envPrefix:"TOKENS_"`
	Shop      Shop      `envPrefix:"SHOP_"`
	Braintree Braintree `envPrefix:"BRAINTREE_"`
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

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	URL    string `env:"URL" envDefault:"commerce.db"`
}

// Redis is optional; with an empty address the engine falls back to the
// in-process order lock.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// AMQP is optional; with an empty URL lifecycle events are dropped.
type AMQP struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"commerce.events"`
}

type Checkout struct {
	AutoConfirm          bool `env:"AUTO_CONFIRM" envDefault:"true"`
	LockTTLSeconds       int  `env:"LOCK_TTL_SECONDS" envDefault:"30"`
	LockAcquireTimeoutMS int  `env:"LOCK_ACQUIRE_TIMEOUT_MS" envDefault:"1500"`
}

type Tokens struct {
	Secret string `env:"SECRET" envDefault:"insecure-dev-secret"`
}

type Shop struct {
	FreeDeliveryThreshold int64 `env:"FREE_DELIVERY_THRESHOLD" envDefault:"10000"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}
