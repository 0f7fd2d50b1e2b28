package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load charge le fichier .env s'il existe
func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// ConfigurationError signale un identifiant ou une option manquante.
// Les composants la renvoient à l'usage plutôt que de faire planter le démarrage.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration manquante: %s", e.Key)
}

type Config struct {
	Port          string
	PublicBaseURL string
	CORSOrigins   []string

	StripeSecretKey string

	EmailAPIKey  string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	MailFrom     string

	OrderStore    string
	MongoURI      string
	MongoDatabase string

	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUsername string
	ScyllaPassword string
	ScyllaCAPath   string

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	KafkaBrokers     string
	KafkaOrdersTopic string

	CatalogPath    string
	EnforceOptions bool

	JWTSecret         string
	AdminPasswordHash string

	CheckoutRateLimit int

	PaymentTimeout time.Duration
	StoreTimeout   time.Duration
	NotifyTimeout  time.Duration
	LockWait       time.Duration
	LockTTL        time.Duration
}

// FromEnv construit la configuration une seule fois au démarrage
func FromEnv() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "10000"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:10000"), "/"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "*")),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),

		EmailAPIKey:  getEnv("EMAIL_API_KEY", os.Getenv("SENDGRID_API_KEY")),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.sendgrid.net"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", "apikey"),
		MailFrom:     getEnv("MAIL_FROM", "ordini@eadshop.it"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "eadshopdb"),

		ScyllaHosts:    splitCSV(os.Getenv("SCYLLA_HOSTS")),
		ScyllaKeyspace: getEnv("SCYLLA_KEYSPACE", "ks_orders"),
		ScyllaUsername: os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword: os.Getenv("SCYLLA_PASSWORD"),
		ScyllaCAPath:   os.Getenv("SCYLLA_SSL_CA_PATH"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "eadshop-receipts"),
		MinIOUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaOrdersTopic: getEnv("KAFKA_ORDERS_TOPIC", "orders.paid"),

		CatalogPath:    os.Getenv("CATALOG_PATH"),
		EnforceOptions: getBool("ENFORCE_OPTIONS", true),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		CheckoutRateLimit: getInt("CHECKOUT_RATE_LIMIT", 20),

		PaymentTimeout: getDuration("PAYMENT_TIMEOUT", 15*time.Second),
		StoreTimeout:   getDuration("STORE_TIMEOUT", 5*time.Second),
		NotifyTimeout:  getDuration("NOTIFY_TIMEOUT", 20*time.Second),
		LockWait:       getDuration("LOCK_WAIT", 20*time.Second),
		LockTTL:        getDuration("LOCK_TTL", 45*time.Second),
	}

	cfg.OrderStore = strings.ToLower(os.Getenv("ORDER_STORE"))
	if cfg.OrderStore == "" {
		switch {
		case cfg.MongoURI != "":
			cfg.OrderStore = "mongo"
		case len(cfg.ScyllaHosts) > 0:
			cfg.OrderStore = "scylla"
		default:
			cfg.OrderStore = "memory"
		}
	}

	return cfg
}

// Warnings liste les intégrations désactivées faute d'identifiants
func (c *Config) Warnings() []string {
	var warnings []string
	if c.StripeSecretKey == "" {
		warnings = append(warnings, "STRIPE_SECRET_KEY absent : les paiements seront refusés")
	}
	if c.EmailAPIKey == "" {
		warnings = append(warnings, "EMAIL_API_KEY absent : aucun e-mail de confirmation ne sera envoyé")
	}
	if c.JWTSecret == "" || c.AdminPasswordHash == "" {
		warnings = append(warnings, "JWT_SECRET ou ADMIN_PASSWORD_HASH absent : routes admin désactivées")
	}
	if c.OrderStore == "memory" {
		warnings = append(warnings, "aucune base configurée : commandes conservées en mémoire")
	}
	// lecture idempotence + attente + paiement + PAID/FAILED
	if minTTL := 3*c.StoreTimeout + c.PaymentTimeout; c.LockTTL < minTTL {
		warnings = append(warnings, fmt.Sprintf("LOCK_TTL (%s) plus court qu'un paiement complet (%s) : le verrou Redis peut expirer en cours de paiement", c.LockTTL, minTTL))
	}
	return warnings
}

// AdminEnabled indique si l'accès admin peut être ouvert
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %v", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
