package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ENV", "")

		conf := NewConfig()
		assert.Equal(t, "DEV", conf.Env)
		assert.True(t, conf.Debug)
		assert.False(t, conf.TestMode)
		assert.Equal(t, "0.0.0.0:4000", conf.Server.Host)
		assert.Equal(t, 7*24*time.Hour, conf.Server.JWTExpirationDelta)
		assert.Equal(t, []string{"http://localhost:5173"}, conf.Server.AllowOrigins)
		assert.Equal(t, "localhost:5432", conf.Database.Address())
	})

	t.Run("test env", func(t *testing.T) {
		t.Setenv("ENV", "test")

		conf := NewConfig()
		assert.Equal(t, "TEST", conf.Env)
		assert.True(t, conf.TestMode)
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("ENV", "qa")
		t.Setenv("QA_DEBUG", "false")
		t.Setenv("QA_SERVER_HOST", "0.0.0.0:8080")
		t.Setenv("QA_SERVER_SHUTDOWNTIMEOUT", "30s")
		t.Setenv("QA_DATABASE_PORT", "6543")

		conf := NewConfig()
		assert.Equal(t, "QA", conf.Env)
		assert.False(t, conf.Debug)
		assert.Equal(t, "0.0.0.0:8080", conf.Server.Host)
		assert.Equal(t, 30*time.Second, conf.Server.ShutdownTimeout)
		assert.Equal(t, "localhost:6543", conf.Database.Address())
	})
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Fitur Utama", CleanString("  Fitur Utama\t"))
	assert.Equal(t, "fitur utama", CleanString(" Fitur Utama ", true))
	assert.Equal(t, "", CleanString("   "))
}

func TestErrors(t *testing.T) {
	nf := NewNotFoundError(assert.AnError, `did you mean "x"?`)
	assert.Equal(t, assert.AnError.Error()+` (did you mean "x"?)`, nf.Error())
	assert.ErrorIs(t, nf, assert.AnError)

	assert.ErrorIs(t, NewConflictError(assert.AnError), assert.AnError)
	assert.ErrorIs(t, NewValidationError(assert.AnError, FieldError{Field: "f", Error: "e"}), assert.AnError)

	assert.True(t, IsShutdown(NewShutdownError("bye")))
	assert.False(t, IsShutdown(assert.AnError))
}
