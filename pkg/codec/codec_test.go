package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Score float64  `json:"score"`
	Tags  []string `json:"tags"`
	Pairs [][2]int `json:"pairs"`
	Opt   *string  `json:"opt,omitempty"`
}

func TestEncodeDecode(t *testing.T) {
	in := sample{Name: "aspirin", Score: 0.25, Tags: []string{"a", "b"}, Pairs: [][2]int{{1, 2}}}

	s, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode[sample](s)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode[sample]("{not json")
	require.Error(t, err)
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(make(chan int))
	require.Error(t, err)
	require.Panics(t, func() { MustEncode(make(chan int)) })
}

func TestIndent(t *testing.T) {
	out, err := Indent(`{"a":1}`)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"a\": 1\n}", out)
}
