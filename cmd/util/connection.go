package util

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/snowflakedb/gosnowflake"
	"github.com/youmark/pkcs8"

	"github.com/gitsnow/gitsnow/internal/logger"
)

// ProfileSuffix is appended to the upper-cased database name to find its connection profile
const ProfileSuffix = "__GITSNOW"

// Profile is one section of connections.toml
type Profile struct {
	Account           string `toml:"account"`
	User              string `toml:"user"`
	Role              string `toml:"role"`
	Warehouse         string `toml:"warehouse"`
	Authenticator     string `toml:"authenticator"`
	PrivateKeyPath    string `toml:"private_key_path"`
	PrivateKeyFilePwd string `toml:"private_key_file_pwd"`
	Password          string `toml:"password"`
}

// ProfileName returns the connections.toml section used for database
func ProfileName(database string) string {
	return strings.ToUpper(database) + ProfileSuffix
}

// ConnectionsFilePath returns SNOWFLAKE_CONNECTIONS_FILE or ~/.snowflake/connections.toml
func ConnectionsFilePath() (string, error) {
	if path := GetEnvWithDefault(EnvConnectionsFile, ""); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".snowflake", "connections.toml"), nil
}

// LoadProfile reads the profile for database from the connections file at path
func LoadProfile(path, database string) (*Profile, error) {
	var profiles map[string]Profile
	if _, err := toml.DecodeFile(path, &profiles); err != nil {
		return nil, fmt.Errorf("failed to read connections file %s: %w", path, err)
	}

	name := ProfileName(database)
	profile, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("connection profile %s not found in %s", name, path)
	}
	if profile.Account == "" || profile.User == "" {
		return nil, fmt.Errorf("connection profile %s requires account and user", name)
	}
	return &profile, nil
}

// sessionParameters are set at login on every connection of the pool
var sessionParameters = map[string]string{
	"QUOTED_IDENTIFIERS_IGNORE_CASE": "FALSE",
	"TIMEZONE":                       "UTC",
}

// Config builds the driver configuration for database.
// A private key selects key-pair (JWT) authentication.
func (p *Profile) Config(database string) (*gosnowflake.Config, error) {
	cfg := &gosnowflake.Config{
		Account:     p.Account,
		User:        p.User,
		Role:        p.Role,
		Warehouse:   p.Warehouse,
		Database:    database,
		Application: "gitsnow",
		Params:      make(map[string]*string, len(sessionParameters)),
	}
	for name, value := range sessionParameters {
		value := value
		cfg.Params[name] = &value
	}

	switch strings.ToLower(p.Authenticator) {
	case "externalbrowser":
		cfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
		return cfg, nil
	case "", "snowflake", "snowflake_jwt":
	default:
		return nil, fmt.Errorf("unsupported authenticator %q", p.Authenticator)
	}

	if p.PrivateKeyPath != "" {
		key, err := loadPrivateKey(p.PrivateKeyPath, p.PrivateKeyFilePwd)
		if err != nil {
			return nil, err
		}
		cfg.Authenticator = gosnowflake.AuthTypeJwt
		cfg.PrivateKey = key
		return cfg, nil
	}

	if p.Password == "" {
		return nil, fmt.Errorf("connection profile needs private_key_path or password")
	}
	cfg.Authenticator = gosnowflake.AuthTypeSnowflake
	cfg.Password = p.Password
	return cfg, nil
}

// loadPrivateKey reads a PEM encoded RSA key, decrypting it when password is set
func loadPrivateKey(path, password string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("private key %s is not PEM encoded", path)
	}

	if block.Type == "RSA PRIVATE KEY" {
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	}
	var key *rsa.PrivateKey
	if password != "" {
		key, err = pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(password))
	} else {
		key, err = pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", path, err)
	}
	return key, nil
}

// OpenConnection connects to database using its profile from connectionsFile,
// or from ConnectionsFilePath when connectionsFile is empty.
func OpenConnection(ctx context.Context, database, connectionsFile string) (*sql.DB, error) {
	log := logger.Get()

	path := connectionsFile
	if path == "" {
		var err error
		if path, err = ConnectionsFilePath(); err != nil {
			return nil, err
		}
	}
	profile, err := LoadProfile(path, database)
	if err != nil {
		return nil, err
	}
	cfg, err := profile.Config(database)
	if err != nil {
		return nil, err
	}

	log.Debug("Attempting warehouse connection",
		"account", cfg.Account,
		"user", cfg.User,
		"database", database,
		"warehouse", cfg.Warehouse,
		"role", cfg.Role,
		"authenticator", cfg.Authenticator,
	)

	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}
	conn, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		log.Debug("Warehouse ping failed", "error", err)
		conn.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	log.Debug("Warehouse connection established successfully")
	return conn, nil
}
