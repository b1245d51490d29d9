package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort string

	// Posts database (owned by the post service).
	PostsDBHost string
	PostsDBPort string
	PostsDBUser string
	PostsDBPass string
	PostsDBName string

	// Social database (follows + likes, owned by the social service).
	SocialDBHost string
	SocialDBPort string
	SocialDBUser string
	SocialDBPass string
	SocialDBName string

	RedisHost string
	RedisPort string
	RedisPass string

	KafkaBrokers string
	KafkaGroupID string
	KafkaTopic   string

	UserServiceURL string

	// Feed tuning.
	DefaultPageSize   int
	CandidatePoolSize int
	HomeWindow        time.Duration
	ExploreWindow     time.Duration
	HomeTTL           time.Duration
	ProfileTTL        time.Duration

	// Scoring. Weights should sum to 1.0; they are knobs, not learned policy.
	WeightRecency    float64
	WeightEngagement float64
	WeightAffinity   float64
	WeightContent    float64
	DecayPerHour     float64
	EngagementCap    float64
	AffinityDefault  float64
	ContentDefault   float64

	// Invalidation.
	ProfileInvalidatePages int
	ConsumerBackoff        time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", ":8083"),

		PostsDBHost: getEnv("POSTS_DB_HOST", "posts-db"),
		PostsDBPort: getEnv("POSTS_DB_PORT", "5432"),
		PostsDBUser: getEnv("POSTS_DB_USER", "postgres"),
		PostsDBPass: getEnv("POSTS_DB_PASS", "postgres"),
		PostsDBName: getEnv("POSTS_DB_NAME", "vistagram_posts"),

		SocialDBHost: getEnv("SOCIAL_DB_HOST", "social-db"),
		SocialDBPort: getEnv("SOCIAL_DB_PORT", "5432"),
		SocialDBUser: getEnv("SOCIAL_DB_USER", "postgres"),
		SocialDBPass: getEnv("SOCIAL_DB_PASS", "postgres"),
		SocialDBName: getEnv("SOCIAL_DB_NAME", "vistagram_social"),

		RedisHost: getEnv("REDIS_HOST", "redis-feed"),
		RedisPort: getEnv("REDIS_PORT", "6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		KafkaBrokers: getEnv("KAFKA_BOOTSTRAP_SERVERS", "kafka:9092"),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "feed-service"),
		KafkaTopic:   getEnv("SOCIAL_EVENTS_TOPIC", "social.events"),

		UserServiceURL: getEnv("USER_SERVICE_URL", "http://user-service:8081"),

		DefaultPageSize:   getEnvInt("FEED_PAGE_SIZE", 20),
		CandidatePoolSize: getEnvInt("FEED_CANDIDATE_POOL", 100),
		HomeWindow:        getEnvDuration("FEED_HOME_WINDOW", 30*24*time.Hour),
		ExploreWindow:     getEnvDuration("FEED_EXPLORE_WINDOW", 48*time.Hour),
		HomeTTL:           getEnvDuration("FEED_CACHE_TTL", 300*time.Second),
		ProfileTTL:        getEnvDuration("FEED_PROFILE_CACHE_TTL", 600*time.Second),

		WeightRecency:    getEnvFloat("SCORE_WEIGHT_RECENCY", 0.5),
		WeightEngagement: getEnvFloat("SCORE_WEIGHT_ENGAGEMENT", 0.3),
		WeightAffinity:   getEnvFloat("SCORE_WEIGHT_AFFINITY", 0.1),
		WeightContent:    getEnvFloat("SCORE_WEIGHT_CONTENT", 0.1),
		DecayPerHour:     getEnvFloat("SCORE_DECAY_PER_HOUR", 0.15),
		EngagementCap:    getEnvFloat("SCORE_ENGAGEMENT_CAP", 1000),
		AffinityDefault:  getEnvFloat("SCORE_AFFINITY_DEFAULT", 0.1),
		ContentDefault:   getEnvFloat("SCORE_CONTENT_DEFAULT", 0.5),

		ProfileInvalidatePages: getEnvInt("FEED_PROFILE_INVALIDATE_PAGES", 10),
		ConsumerBackoff:        getEnvDuration("CONSUMER_BACKOFF", 5*time.Second),
	}
}

func (c *Config) PostsDSN() string {
	return dsn(c.PostsDBHost, c.PostsDBPort, c.PostsDBUser, c.PostsDBPass, c.PostsDBName)
}

func (c *Config) SocialDSN() string {
	return dsn(c.SocialDBHost, c.SocialDBPort, c.SocialDBUser, c.SocialDBPass, c.SocialDBName)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func dsn(host, port, user, pass, name string) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, pass, name,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
