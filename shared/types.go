package shared

type ServerConfig struct {
	Sqlite    SqliteConfig    `mapstructure:"sqlite" validate:"required"`
	Umshado   UmshadoConfig   `mapstructure:"umshado" validate:"required"`
	Providers ProvidersConfig `mapstructure:"providers" validate:"required"`
	Google    GoogleConfig    `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type UmshadoConfig struct {
	PrivateKeyPem string `mapstructure:"privateKeyPem" validate:"required"`
	// Bcrypt hash of the dashboard admin password. When empty, the
	// destructive bulk routes are left open (dev mode).
	AdminPasswordHash string         `mapstructure:"adminPasswordHash"`
	Cron              CronConfig     `mapstructure:"cron" validate:"required"`
	Listener          ListenerConfig `mapstructure:"listener" validate:"required"`
	Wedding           WeddingConfig  `mapstructure:"wedding" validate:"required"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

// WeddingConfig carries the invitation details baked into every message,
// plus the default country code used to normalize local phone numbers.
type WeddingConfig struct {
	CoupleNames        string `mapstructure:"coupleNames" validate:"required"`
	Venue              string `mapstructure:"venue" validate:"required"`
	Date               string `mapstructure:"date" validate:"required"`
	RSVPLink           string `mapstructure:"rsvpLink" validate:"required,url"`
	DefaultCountryCode string `mapstructure:"defaultCountryCode" validate:"required,numeric"`
}

type ProvidersConfig struct {
	Active   string         `mapstructure:"active" validate:"required,oneof=authkey wasender twilio"`
	Authkey  AuthkeyConfig  `mapstructure:"authkey"`
	Wasender WasenderConfig `mapstructure:"wasender"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
}

type AuthkeyConfig struct {
	ApiKey string `mapstructure:"apiKey"`
	SID    string `mapstructure:"sid"`
}

type WasenderConfig struct {
	ApiToken string `mapstructure:"apiToken"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Bucket                    string      `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string      `mapstructure:"prefix" validate:"required_with=EnableSqliteBackupAndSync"`
	SqliteBackupSchedule      string      `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync interface{} `mapstructure:"enableSqliteBackupAndSync" validate:"omitempty,bool"`
}
