package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppEnv      string `env:"APP_ENV" envDefault:"dev"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"168h"`

	FirebaseProjectID     string `env:"FIREBASE_PROJECT_ID"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	Twilio TwilioConfig `envPrefix:"TWILIO_"`
	SMTP   SMTPConfig   `envPrefix:"SMTP_"`
	Notify NotifyConfig

	StorageBucket string `env:"STORAGE_BUCKET"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

type TwilioConfig struct {
	AccountSID string `env:"ACCOUNT_SID"`
	AuthToken  string `env:"AUTH_TOKEN"`
	FromNumber string `env:"FROM_NUMBER"`
}

// Enabled reports whether every credential needed to reach Twilio is present.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
}

func (s SMTPConfig) Enabled() bool {
	return s.User != "" && s.Password != ""
}

type NotifyConfig struct {
	AMQPURL     string `env:"AMQP_URL"`
	Queue       string `env:"NOTIFY_QUEUE" envDefault:"cakemarket.notifications"`
	Workers     int    `env:"NOTIFY_WORKERS" envDefault:"2"`
	Buffer      int    `env:"NOTIFY_BUFFER" envDefault:"256"`
	CountryCode string `env:"SMS_COUNTRY_CODE" envDefault:"+94"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
