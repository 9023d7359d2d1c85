package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger(t *testing.T, log Logger) {
	assert.NotPanics(t, func() {
		log.Debug("some debug ", 1, 2, 3)
		log.Debugf("some debug %d %d %d", 1, 2, 3)
		log.Info("some info ", 1, 2, 3)
		log.Infof("some info %d %d %d", 1, 2, 3)
		log.Error("some error ", 1, 2, 3)
		log.Errorf("some error %d %d %d", 1, 2, 3)
	})
}

func TestLogger(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	testLogger(t, NewNoopLogger())
	testLogger(t, NewBasicLogger(true))
	testLogger(t, NewTextLogger("test", true))
	testLogger(t, NewJSONLogger("test", false))
}
