package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Query   string `json:"query"`
	Matches int    `json:"matches"`
}

func TestEncode(t *testing.T) {
	msgs, err := encode([]Event{
		{Key: "dog", Value: payload{Query: "dog", Matches: 3}},
		{Key: "cat", Value: payload{Query: "cat"}},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "dog", string(msgs[0].Key))
	assert.JSONEq(t, `{"query":"dog","matches":3}`, string(msgs[0].Value))
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	_, err := encode([]Event{{Key: "bad", Value: make(chan int)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[payload]([]byte(`{"query":"god","matches":2}`))
	require.NoError(t, err)
	assert.Equal(t, payload{Query: "god", Matches: 2}, got)

	_, err = DecodeJSON[payload]([]byte(`not json`))
	assert.ErrorContains(t, err, "decoding kafka message")
}
