package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTemplates(t *testing.T) {
	got := parseTemplates("tictactoe:4:100, chess:8:0,broken,dice:x:1")
	assert.Equal(t, []TemplateConfig{
		{GameType: "tictactoe", Capacity: 4, EntryFee: 100},
		{GameType: "chess", Capacity: 8, EntryFee: 0},
	}, got)
	assert.Empty(t, parseTemplates(""))
}

func TestGetDuration(t *testing.T) {
	t.Setenv("ROOM_BOT_FILL_DELAY", "3s")
	t.Setenv("ROOM_DISCONNECT_GRACE", "soon")
	assert.Equal(t, 3*time.Second, getDuration("ROOM_BOT_FILL_DELAY", time.Minute))
	assert.Equal(t, time.Minute, getDuration("ROOM_DISCONNECT_GRACE", time.Minute))
	assert.Equal(t, time.Second, getDuration("UNSET_DURATION_KEY", time.Second))
}
