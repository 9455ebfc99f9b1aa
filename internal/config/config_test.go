package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	assert.Equal(t, 8080, viper.GetInt("app.port"))
	assert.Equal(t, "text-embedding-v3", viper.GetString("ai.embedding_model"))
	assert.Equal(t, 1.5, viper.GetFloat64("knowledge.max_distance"))
	assert.Equal(t, 3, viper.GetInt("knowledge.top_k"))
	assert.Equal(t, "30s", viper.GetString("ai.text_timeout"))
}

func TestInitConfigFromFile(t *testing.T) {
	configContent := `
app:
  name: "LifeHub Test"
  port: 9090
  mode: "test"
  secret_key: "test-secret"

database:
  mysql:
    host: "localhost"
    user: "test_user"
    password: "test_pass"
    dbname: "test_db"
  redis:
    host: "localhost"

jwt:
  secret: "test-jwt-secret"

knowledge:
  data_dir: "./testdata"
  max_distance: 0.9

log:
  level: "debug"
`
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(configContent), 0644))

	viper.Reset()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(wd)

	require.NoError(t, InitConfig())

	assert.Equal(t, "LifeHub Test", GlobalConfig.App.Name)
	assert.Equal(t, 9090, GlobalConfig.App.Port)
	assert.Equal(t, 0.9, GlobalConfig.Knowledge.MaxDistance)
	// 未覆盖的键保留默认值
	assert.Equal(t, "qwen-plus", GlobalConfig.AI.TextModel)
}

func TestMySQLDSN(t *testing.T) {
	cfg := MySQLConfig{
		Host:     "db.local",
		Port:     3306,
		User:     "u",
		Password: "p",
		DBName:   "lifehub",
	}
	assert.Equal(t, "u:p@tcp(db.local:3306)/lifehub?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}
