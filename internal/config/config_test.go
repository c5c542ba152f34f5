package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
api:
  environment: "test"
  port: "9090"
  public_url: "https://tickets.test/"
  jwt_signing_key: "from-file"
  jwt_ttl: "2h"
postgres:
  host: "db"
  port: "5432"
  user: "u"
  password: "p"
  db: "tickets"
payhero:
  base_url: "https://payhero.test"
  channel_id: 911
rate_limit:
  requests: 5
  window: "30s"
tickets:
  pdf_dir: ""
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, 2*time.Hour, conf.API.JWTTTL)
	assert.Equal(t, 911, conf.PayHero.ChannelID)
	assert.Equal(t, "https://tickets.test/api/payhero/callback", conf.PayHero.CallbackURL)
	assert.Equal(t, 5, conf.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, conf.RateLimit.Window)
	assert.Equal(t, "THE DARK ORDER", conf.Tickets.Branding.Title)
	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, "host=db user=u password=p dbname=tickets port=5432 sslmode=disable TimeZone=UTC", conf.Postgres.DSN())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TICKETING_API_JWT_SIGNING_KEY", "from-env")
	t.Setenv("TICKETING_TICKETS_PDF_DIR", "/var/tickets")

	conf, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.API.JWTSigningKey)
	assert.Equal(t, "/var/tickets", conf.Tickets.PDFDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
