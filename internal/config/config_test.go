package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DBConfig
		want string
	}{
		{
			name: "oracle",
			db:   DBConfig{Driver: DriverOracle, User: "quiz", Password: "pw", Host: "db", Port: 1521, DBName: "FREEPDB1"},
			want: "oracle://quiz:pw@db:1521/FREEPDB1",
		},
		{
			name: "postgres",
			db:   DBConfig{Driver: DriverPostgres, User: "quiz", Password: "pw", Host: "db", Port: 5432, DBName: "guardians"},
			want: "postgres://quiz:pw@db:5432/guardians?sslmode=disable",
		},
		{
			name: "sqlite",
			db:   DBConfig{Driver: DriverSQLite, DBName: "local.db"},
			want: "file:local.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		},
		{
			name: "explicit dsn wins",
			db:   DBConfig{Driver: DriverPostgres, DSN: "postgres://elsewhere/db"},
			want: "postgres://elsewhere/db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{DB: tt.db}
			assert.Equal(t, tt.want, c.GetDSN())
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Storage: StorageConfig{Backend: StorageSQL},
			DB:      DBConfig{Driver: DriverSQLite},
			JWT:     JWTConfig{SecretKey: "secret"},
		}
	}

	assert.NoError(t, base().Validate())

	c := base()
	c.DB.Driver = "mysql"
	assert.Error(t, c.Validate())

	c = base()
	c.Storage.Backend = StorageMongo
	assert.Error(t, c.Validate())
	c.Mongo.URI = "mongodb://localhost:27017"
	assert.NoError(t, c.Validate())

	c = base()
	c.JWT.SecretKey = ""
	assert.Error(t, c.Validate())
}
