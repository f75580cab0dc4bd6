package motion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandModeExclusivity(t *testing.T) {
	lin := TestParameters{Mode: Linear, Magnitude: 0.5, Duration: time.Second}.Command()
	assert.Equal(t, Command{Linear: 0.5}, lin)

	ang := TestParameters{Mode: Angular, Magnitude: -1.0, Duration: time.Second}.Command()
	assert.Equal(t, Command{Angular: -1.0}, ang)

	assert.True(t, Stop.IsStop())
	assert.False(t, lin.IsStop())
}

func TestValidate(t *testing.T) {
	ok := TestParameters{Mode: Linear, Magnitude: 1, Duration: time.Second}
	require.NoError(t, ok.Validate())

	for name, p := range map[string]TestParameters{
		"zero duration":     {Mode: Linear, Magnitude: 1},
		"negative duration": {Mode: Angular, Magnitude: 1, Duration: -time.Second},
		"no mode":           {Magnitude: 1, Duration: time.Second},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, p.Validate(), ErrInvalidInput)
		})
	}
}

func TestParseInput(t *testing.T) {
	_, err := ParseMagnitude("abc")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseMagnitude("NaN")
	assert.ErrorIs(t, err, ErrInvalidInput)

	v, err := ParseMagnitude(" -3.0 ")
	require.NoError(t, err)
	assert.Equal(t, -3.0, v)

	_, err = ParseDuration("-1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseDuration("0")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseDuration("1e10")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "too long")
	_, err = ParseDuration("1e-12")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "too short")

	d, err := ParseDuration("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d)
}

func TestTwistWireFormat(t *testing.T) {
	payload, err := json.Marshal(Command{Linear: 0.5}.Twist())
	require.NoError(t, err)
	assert.JSONEq(t, `{"linear":{"x":0.5,"y":0,"z":0},"angular":{"x":0,"y":0,"z":0}}`, string(payload))

	var tw Twist
	require.NoError(t, json.Unmarshal([]byte(`{"linear":{"x":0},"angular":{"z":-1}}`), &tw))
	assert.Equal(t, Command{Angular: -1}, tw.Command())
}
