package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	AI        AIConfig        `mapstructure:"ai"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Upload    UploadConfig    `mapstructure:"upload"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type AppConfig struct {
	Name      string `mapstructure:"name"`
	Version   string `mapstructure:"version"`
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	SecretKey string `mapstructure:"secret_key"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

type MySQLConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN builds the MySQL connection string.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	PoolSize   int    `mapstructure:"pool_size"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpire  time.Duration `mapstructure:"access_token_expire"`
	RefreshTokenExpire time.Duration `mapstructure:"refresh_token_expire"`
}

// AIConfig configures the upstream OpenAI-compatible service used for text
// generation, multimodal chat and text embeddings.
type AIConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	APIKey          string        `mapstructure:"api_key"`
	TextModel       string        `mapstructure:"text_model"`
	VisionModel     string        `mapstructure:"vision_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	TextTimeout     time.Duration `mapstructure:"text_timeout"`
	VisionTimeout   time.Duration `mapstructure:"vision_timeout"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Temperature     float32       `mapstructure:"temperature"`
	GeocodeEndpoint string        `mapstructure:"geocode_endpoint"`
}

// KnowledgeConfig configures the offline knowledge bases and vector retrieval.
type KnowledgeConfig struct {
	DataDir     string  `mapstructure:"data_dir"`
	TopK        int     `mapstructure:"top_k"`
	MaxDistance float64 `mapstructure:"max_distance"`
	// UseRemoteEmbedding switches from the offline hashing encoder to the
	// configured embedding API.
	UseRemoteEmbedding bool `mapstructure:"use_remote_embedding"`
}

type UploadConfig struct {
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
}

type RateLimitConfig struct {
	APICallsPerMinute int64 `mapstructure:"api_calls_per_minute"`
	APICallsPerHour   int64 `mapstructure:"api_calls_per_hour"`
	AIPerMinute       int64 `mapstructure:"ai_per_minute"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

var GlobalConfig *Config

func InitConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// 配置文件搜索路径
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/lifehub")

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 绑定环境变量
	viper.AutomaticEnv()
	viper.SetEnvPrefix("LIFEHUB")

	// 将配置解析到结构体
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}

	GlobalConfig = &config
	return nil
}

func setDefaults() {
	// 应用默认配置
	viper.SetDefault("app.port", 8080)
	viper.SetDefault("app.mode", "debug")
	viper.SetDefault("app.name", "LifeHub")
	viper.SetDefault("app.version", "1.0.0")

	// 数据库默认配置
	viper.SetDefault("database.mysql.port", 3306)
	viper.SetDefault("database.mysql.max_open_conns", 25)
	viper.SetDefault("database.mysql.max_idle_conns", 5)
	viper.SetDefault("database.mysql.conn_max_lifetime", "300s")

	viper.SetDefault("database.redis.port", 6379)
	viper.SetDefault("database.redis.pool_size", 10)
	viper.SetDefault("database.redis.max_retries", 3)

	// JWT默认配置
	viper.SetDefault("jwt.access_token_expire", "2h")
	viper.SetDefault("jwt.refresh_token_expire", "168h")

	// AI默认配置
	viper.SetDefault("ai.endpoint", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	viper.SetDefault("ai.text_model", "qwen-plus")
	viper.SetDefault("ai.vision_model", "qwen-vl-plus")
	viper.SetDefault("ai.embedding_model", "text-embedding-v3")
	viper.SetDefault("ai.text_timeout", "30s")
	viper.SetDefault("ai.vision_timeout", "60s")
	viper.SetDefault("ai.max_tokens", 2000)
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.geocode_endpoint", "https://nominatim.openstreetmap.org")

	// 知识库默认配置
	viper.SetDefault("knowledge.data_dir", "./data/knowledge")
	viper.SetDefault("knowledge.top_k", 3)
	viper.SetDefault("knowledge.max_distance", 1.5)
	viper.SetDefault("knowledge.use_remote_embedding", false)

	// 上传默认配置
	viper.SetDefault("upload.dir", "./uploads")
	viper.SetDefault("upload.max_size_mb", 10)

	// 限流默认配置
	viper.SetDefault("rate_limit.api_calls_per_minute", 60)
	viper.SetDefault("rate_limit.api_calls_per_hour", 1000)
	viper.SetDefault("rate_limit.ai_per_minute", 5)

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.filename", "./logs/lifehub.log")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age", 30)
}
