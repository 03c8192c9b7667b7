package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plus3/fruitmerge/config"
	"github.com/plus3/fruitmerge/fruit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 400.0, cfg.Area.Width)
	assert.Equal(t, 600.0, cfg.Area.Height)
	assert.Equal(t, 60.0, cfg.Physics.TickRate)
	assert.Equal(t, 0.3, cfg.Physics.Restitution)
	assert.Equal(t, 0.1, cfg.Physics.Friction)
	assert.Equal(t, 0.01, cfg.Physics.AirFriction)
	assert.Equal(t, 0.3, cfg.Drop.MaxSpin)
	assert.Equal(t, 0.5, cfg.Fog.TTL)
	assert.True(t, cfg.GameOver.Enabled)
	assert.Equal(t, 30, cfg.GameOver.SettleTicks)
	assert.InDelta(t, 1.0/60, cfg.TickDuration(), 1e-12)

	table, err := cfg.Table()
	require.NoError(t, err)
	assert.Equal(t, 11, table.Len())
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
area:
  width: 300
game_over:
  enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, 300.0, cfg.Area.Width)
	assert.Equal(t, 600.0, cfg.Area.Height, "unset keys keep their default")
	assert.False(t, cfg.GameOver.Enabled)
	assert.Equal(t, 4.0, cfg.GameOver.SettleSpeed)
}

func TestParseFruitTable(t *testing.T) {
	cfg, err := config.Parse([]byte(`
fruits:
  - {tier: 1, name: pea, radius: 5, mass: 1}
  - {tier: 2, name: bean, radius: 8, mass: 2, score_value: 7}
`))
	require.NoError(t, err)

	table, err := cfg.Table()
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	next, ok := table.SuccessorOf(table.Smallest())
	require.True(t, ok)
	assert.Equal(t, "bean", next.Name)
	assert.Equal(t, 20, next.Reward())
	assert.Equal(t, 10, table.Smallest().Reward())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"zero width", "area: {width: 0}", "area.width"},
		{"air friction", "physics: {air_friction: 1}", "physics.air_friction"},
		{"negative spin", "drop: {max_spin: -1}", "drop.max_spin"},
		{"settle ticks", "game_over: {settle_ticks: 0}", "game_over.settle_ticks"},
		{"bad fruits", "fruits: [{tier: 1, radius: 5, mass: 1}, {tier: 2, radius: 4, mass: 2}]", "fruits:"},
		{"bad yaml", "area: [", "config:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Area.Width = -1
	cfg.Fog.TTL = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "area.width")
	assert.Contains(t, err.Error(), "fog.ttl")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fog: {scale: 3}\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Fog.Scale)

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("area: {height: -5}\n"), 0o644))
	_, err = config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestDefaultTableMatchesBuiltIn(t *testing.T) {
	table, err := config.Default().Table()
	require.NoError(t, err)
	assert.Equal(t, fruit.Default().Largest(), table.Largest())
}
