package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// DraftRules holds the tunable thresholds of the draft lifecycle engine.
// The defaults mirror the current product values but are not considered
// final, so every one of them can be overridden from the environment.
type DraftRules struct {
	SignificantRatingDelta float64
	MinApprovalRating      float64
	MinApprovalCompletion  float64
	MinRejectionReasonLen  int
}

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	DatabaseURL        string
	Env                string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	Drafts             DraftRules
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:        dbURL,
		Env:                env,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		Drafts:             loadDraftRules(),
	}
}

// DefaultDraftRules returns the built-in lifecycle thresholds.
func DefaultDraftRules() DraftRules {
	return DraftRules{
		SignificantRatingDelta: 0.3,
		MinApprovalRating:      2.0,
		MinApprovalCompletion:  0.5,
		MinRejectionReasonLen:  10,
	}
}

func loadDraftRules() DraftRules {
	rules := DefaultDraftRules()
	if v, ok := readEnvFloat("DRAFT_RATING_DELTA"); ok {
		rules.SignificantRatingDelta = v
	}
	if v, ok := readEnvFloat("DRAFT_MIN_APPROVAL_RATING"); ok {
		rules.MinApprovalRating = v
	}
	if v, ok := readEnvFloat("DRAFT_MIN_APPROVAL_COMPLETION"); ok {
		rules.MinApprovalCompletion = v
	}
	if v, ok := readEnvInt("DRAFT_MIN_REJECTION_REASON"); ok && v > 0 {
		rules.MinRejectionReasonLen = v
	}
	return rules
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func readEnvFloat(key string) (float64, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default", key, raw)
		return 0, false
	}
	return v, true
}

func readEnvInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid %s=%q, using default", key, raw)
		return 0, false
	}
	return v, true
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
