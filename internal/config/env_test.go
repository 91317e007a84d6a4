// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHelpers(t *testing.T) {
	t.Setenv("CHOUFTV_T_STR", "value")
	t.Setenv("CHOUFTV_T_EMPTY", "")
	t.Setenv("CHOUFTV_T_INT", "42")
	t.Setenv("CHOUFTV_T_BADINT", "4x2")
	t.Setenv("CHOUFTV_T_DUR", "1500ms")
	t.Setenv("CHOUFTV_T_BOOL", "false")
	t.Setenv("CHOUFTV_T_FLOAT", "0.25")

	assert.Equal(t, "value", ParseString("CHOUFTV_T_STR", "def"))
	assert.Equal(t, "def", ParseString("CHOUFTV_T_EMPTY", "def"))
	assert.Equal(t, "def", ParseString("CHOUFTV_T_MISSING", "def"))
	assert.Equal(t, 42, ParseInt("CHOUFTV_T_INT", 1))
	assert.Equal(t, 1, ParseInt("CHOUFTV_T_BADINT", 1))
	assert.Equal(t, 1500*time.Millisecond, ParseDuration("CHOUFTV_T_DUR", time.Second))
	assert.False(t, ParseBool("CHOUFTV_T_BOOL", true))
	assert.InDelta(t, 0.25, ParseFloat("CHOUFTV_T_FLOAT", 1), 1e-9)
}

func TestIsSensitive(t *testing.T) {
	assert.True(t, isSensitive("CHOUFTV_XTREAM_PASSWORD"))
	assert.True(t, isSensitive("CHOUFTV_FETCH_PROXY"))
	assert.False(t, isSensitive("CHOUFTV_LISTEN"))
}
