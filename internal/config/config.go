package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

const DefaultWebhookURL = "https://swebhooks.conversapp.com.br/webhook/webhook/dashboard-data"

type Config struct {
	WebhookURL    string        `validate:"required,url"`
	Port          string        `validate:"required,numeric"`
	HTTPTimeout   time.Duration `validate:"gt=0"`
	PollInterval  time.Duration `validate:"gte=0"`
	PollRetry     time.Duration `validate:"gt=0"`
	LogLevel      slog.Level
	Location      *time.Location           `validate:"required"`
	MissingDates  models.MissingDatePolicy `validate:"oneof=absent now"`
	DiscardStale  bool
	RefreshRate   string `validate:"required"`
	CORSOrigins   []string
	OTelEnabled   bool
	OTelEndpoint  string
	DirectoryFile string
	Directory     Directory
}

// Directory holds the static lookup tables: who is who in the CRM, the
// canonical funnel order and the dashboard goals.
type Directory struct {
	Users      map[string]models.UserConfig `yaml:"users" validate:"required,min=1,dive"`
	StageOrder []string                     `yaml:"stage_order" validate:"required,min=1,dive,required"`
	Goals      models.Goals                 `yaml:"goals"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("crm_role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("register crm_role: %v", err))
	}
	return v
}

// FromEnv reads the configuration from the environment, after loading a .env
// file when one exists. A DIRECTORY_FILE replaces the built-in directory.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		WebhookURL:    envOr("WEBHOOK_URL", DefaultWebhookURL),
		Port:          envOr("PORT", "8080"),
		HTTPTimeout:   seconds("HTTP_TIMEOUT_SECONDS", 180*time.Second),
		PollInterval:  seconds("POLL_INTERVAL_SECONDS", 5*time.Minute),
		PollRetry:     seconds("POLL_RETRY_SECONDS", 10*time.Second),
		LogLevel:      level(os.Getenv("LOG_LEVEL")),
		MissingDates:  models.MissingDatePolicy(strings.ToLower(envOr("MISSING_DATE_POLICY", string(models.MissingDateAbsent)))),
		DiscardStale:  boolean("DISCARD_STALE_REFRESH"),
		RefreshRate:   envOr("REFRESH_RATE", "10-M"),
		CORSOrigins:   list(envOr("CORS_ORIGINS", "*")),
		OTelEnabled:   boolean("OTEL_ENABLED"),
		OTelEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		DirectoryFile: os.Getenv("DIRECTORY_FILE"),
		Directory:     DefaultDirectory(),
	}

	loc, err := time.LoadLocation(envOr("TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return Config{}, fmt.Errorf("timezone: %w", err)
	}
	cfg.Location = loc

	if cfg.DirectoryFile != "" {
		d, err := LoadDirectory(cfg.DirectoryFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Directory = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateStruct checks v against the same rule set as the configuration.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}

func (d Directory) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}
	return nil
}

// LoadDirectory reads a YAML directory file. Sections missing from the file
// keep their built-in defaults.
func LoadDirectory(path string) (Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Directory{}, fmt.Errorf("read directory: %w", err)
	}
	return ParseDirectory(b)
}

func ParseDirectory(b []byte) (Directory, error) {
	var d Directory
	if err := yaml.Unmarshal(b, &d); err != nil {
		return Directory{}, fmt.Errorf("parse directory: %w", err)
	}
	def := DefaultDirectory()
	if len(d.Users) == 0 {
		d.Users = def.Users
	}
	if len(d.StageOrder) == 0 {
		d.StageOrder = def.StageOrder
	}
	if d.Goals == (models.Goals{}) {
		d.Goals = def.Goals
	}
	if err := d.Validate(); err != nil {
		return Directory{}, err
	}
	return d, nil
}

func DefaultDirectory() Directory {
	return Directory{
		Users: map[string]models.UserConfig{
			"63f93580-afaa-49c8-af82-4c531d91e02a": {Name: "Nerik Lino", Role: models.RoleCloser},
			"697b8530-66ca-4ca6-8fc2-c9be22257ac9": {Name: "Maria Eduarda", Role: models.RoleSDR},
			"21b6c240-c438-44f1-929c-dd75e147bc2f": {Name: "Ketylaine Souza", Role: models.RoleSDR},
			"f8c14041-5757-4d37-b3e4-6e9d8c3e9ec7": {Name: "Italo Antonio", Role: models.RoleCloser},
			"954fb85f-aeb6-4747-a2cc-95fe2a8ae105": {Name: "Erick Gabriel", Role: models.RoleCloser},
			"8282fef2-2c76-4fc8-a4cb-9194daf6a617": {Name: "Eduarda Felipe", Role: models.RoleSDR},
		},
		StageOrder: []string{
			"BASE (Entrada Inicial)",
			"QUALIFICADO (Lead com potencial)",
			"DESQUALIFICADO (Lead sem potencial)",
			"FOLLOW-UP (Em acompanhamento)",
			"REUNIÃO AGENDADA",
			"NO-SHOW (Não compareceu)",
			"RECUPERAÇÃO (Nova tentativa)",
			"PROPOSTA ENVIADA",
			"DESISTIU DE SEGUIR",
			"CONTRATO ASSINADO",
			"PAGAMENTO CONFIRMADO",
		},
		Goals: models.Goals{
			RevenueTarget:   150000,
			ContractsTarget: 30,
			CashFlowTarget:  50000,
			MemberTarget:    100000,
		},
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func seconds(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Second
}

func boolean(k string) bool {
	b, _ := strconv.ParseBool(os.Getenv(k))
	return b
}

func level(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func list(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
