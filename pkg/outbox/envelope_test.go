package outbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	id := uuid.New()
	env, eventID, err := ParseEnvelope([]byte(`{"version":1,"eventId":"` + id.String() + `","data":{"orderNumber":"ORD-20260110-0007"}}`))
	require.NoError(t, err)
	assert.Equal(t, id, eventID)

	var data struct {
		OrderNumber string `json:"orderNumber"`
	}
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, "ORD-20260110-0007", data.OrderNumber)
}

func TestParseEnvelopeRejectsUnusableBodies(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"future version": `{"version":9,"eventId":"` + uuid.NewString() + `"}`,
		"missing id":     `{"version":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseEnvelope([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestDecodeDataRequiresPayload(t *testing.T) {
	var v map[string]any
	assert.Error(t, PayloadEnvelope{EventID: "e"}.DecodeData(&v))
}
