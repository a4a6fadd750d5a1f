package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/penilaian/core"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "TEST : ", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)

	logger.Info("grades submitted", core.UserID("u1"))
	logger.Error("submitting grades", errors.New("boom"), map[string]interface{}{"parameter": "p"})

	want := "TEST : grades submitted\n" +
		"TEST : user: u1\n" +
		"TEST : submitting grades\n" +
		"TEST : boom\n" +
		"TEST : map[parameter:p]\n"
	assert.Equal(t, want, buf.String())
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(&bytes.Buffer{}, "", 0), &core.Config{})
	logger.Enable(false)

	err := errors.New("boom")
	args := logger.prepare("msg", []interface{}{core.UserID("u1"), err, core.UserID("u2")})
	assert.Equal(t, []interface{}{"msg", err}, args)
}
