package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Build        string
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		WorkDir      string
		RollbarToken string
		LogFile      string

		Server     ServerConfig
		Database   DatabaseConfig
		Redis      RedisConfig
		Assessment AssessmentConfig
		Autosave   AutosaveConfig
	}

	ServerConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		AllowedOrigins  []string
		WorkspaceTTL    time.Duration // idle open cases are closed after this
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		InMemory      bool // skip postgres entirely (DEV/TEST)
	}

	RedisConfig struct {
		Addr     string // empty: in-memory cache
		Password string
		DB       int
	}

	AssessmentConfig struct {
		URL       string
		Timeout   time.Duration
		RateLimit float64 // requests per second
		Burst     int
		CacheTTL  time.Duration
	}

	AutosaveConfig struct {
		FieldDelay   time.Duration
		SectionDelay time.Duration
		SessionDelay time.Duration
	}
)

func (dbConf DatabaseConfig) Address() string {
	return dbConf.Host + ":" + dbConf.Port
}

// NewConfig loads the application configuration from defaults, the optional `config/.env.<env>` file
// and the environment (prefixed by the current ENV).
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		WorkDir:      workDir,
		RollbarToken: v.GetString("rollbarToken"),
		LogFile:      v.GetString("logFile"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			AllowedOrigins:  v.GetStringSlice("server.allowedOrigins"),
			WorkspaceTTL:    v.GetDuration("server.workspaceTTL"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			InMemory:      v.GetBool("database.inMemory"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Assessment: AssessmentConfig{
			URL:       v.GetString("assessment.url"),
			Timeout:   v.GetDuration("assessment.timeout"),
			RateLimit: v.GetFloat64("assessment.rateLimit"),
			Burst:     v.GetInt("assessment.burst"),
			CacheTTL:  v.GetDuration("assessment.cacheTTL"),
		},
		Autosave: AutosaveConfig{
			FieldDelay:   v.GetDuration("autosave.fieldDelay"),
			SectionDelay: v.GetDuration("autosave.sectionDelay"),
			SessionDelay: v.GetDuration("autosave.sessionDelay"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "CaseLink")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.workspaceTTL", 30*time.Minute)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "caselink")
	v.SetDefault("database.user", "caselink")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.inMemory", false)

	v.SetDefault("redis.db", 0)

	v.SetDefault("assessment.url", "https://api.arrc.one/service/loadUserAssessment")
	v.SetDefault("assessment.timeout", 15*time.Second)
	v.SetDefault("assessment.rateLimit", 2.0)
	v.SetDefault("assessment.burst", 4)
	v.SetDefault("assessment.cacheTTL", 5*time.Minute)

	v.SetDefault("autosave.fieldDelay", 400*time.Millisecond)
	v.SetDefault("autosave.sectionDelay", time.Second)
	v.SetDefault("autosave.sessionDelay", 2*time.Second)
}
