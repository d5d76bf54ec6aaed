package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type OpenAI struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	ImageSize  string
}

type Gemini struct {
	APIKey string
	Model  string
}

type Generation struct {
	TextProvider        string
	ImagesPerSuggestion int
	ImageConcurrency    int
	MinCount            int
	MaxAge              time.Duration
	BackoffRetries      int
	BackoffInitialDelay time.Duration
	RefreshOnGenerate   bool
}

type Config struct {
	Port               string
	PostgresURI        string
	FrontendURL        string
	SecretKey          string
	CookieName         string
	InstagramGraphURL  string
	SocialSyncInterval time.Duration
	StorageDriver      string
	UploadDir          string
	PublicBaseURL      string
	OpenAI             OpenAI
	Gemini             Gemini
	Generation         Generation
	R2                 R2
}

func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", "postflow_session"),
		InstagramGraphURL:  getEnv("INSTAGRAM_GRAPH_URL", "https://graph.instagram.com/v21.0"),
		SocialSyncInterval: getEnvDuration("SOCIAL_SYNC_INTERVAL", 6*time.Hour),
		StorageDriver:      getEnv("STORAGE_DRIVER", "local"),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:3000/uploads"),
		OpenAI: OpenAI{
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", ""),
			TextModel:  getEnv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
			ImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
			ImageSize:  getEnv("IMAGE_SIZE", "1024x1024"),
		},
		Gemini: Gemini{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Generation: Generation{
			TextProvider:        getEnv("TEXT_PROVIDER", "openai"),
			ImagesPerSuggestion: clamp(getEnvInt("IMAGES_PER_SUGGESTION", 1), 0, 2),
			ImageConcurrency:    clamp(getEnvInt("IMAGE_CONCURRENCY", 3), 1, 10),
			MinCount:            clamp(getEnvInt("SUGGESTION_MIN_COUNT", 3), 1, 20),
			MaxAge:              getEnvDuration("SUGGESTION_MAX_AGE", 24*time.Hour),
			BackoffRetries:      getEnvInt("BACKOFF_RETRIES", 3),
			BackoffInitialDelay: getEnvDuration("BACKOFF_INITIAL_DELAY", time.Second),
			RefreshOnGenerate:   getEnvBool("SOCIAL_REFRESH_ON_GENERATE", true),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
