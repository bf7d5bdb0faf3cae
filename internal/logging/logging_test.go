package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("department_id", "d1").Info("assigned")
	assert.Contains(t, buf.String(), "department_id=d1")
	assert.Contains(t, buf.String(), "msg=assigned")
}

func TestNew_UnknownLevel(t *testing.T) {
	logger := New("chatty", nil)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
