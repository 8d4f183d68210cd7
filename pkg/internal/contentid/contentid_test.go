package contentid

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShape(t *testing.T) {
	data := bytes.Repeat([]byte("photoarchive"), 100)

	id, err := Generate(data)
	require.NoError(t, err)

	full := base64.StdEncoding.EncodeToString(data)
	want := fmt.Sprintf("%s_%08x", full[:PrefixLength], crc32.ChecksumIEEE(data))
	assert.Equal(t, want, id)
	assert.Len(t, id, PrefixLength+1+8)
}

func TestGenerateShortInput(t *testing.T) {
	id, err := Generate([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("YWI=_%08x", crc32.ChecksumIEEE([]byte("ab"))), id)
}

func TestGenerateChecksumCoversWholePayload(t *testing.T) {
	a := bytes.Repeat([]byte{1}, 4096)
	b := bytes.Repeat([]byte{1}, 4096)
	b[4000] = 2

	ida, err := Generate(a)
	require.NoError(t, err)
	idb, err := Generate(b)
	require.NoError(t, err)

	assert.Equal(t, ida[:PrefixLength], idb[:PrefixLength])
	assert.NotEqual(t, ida, idb)
}

func TestGenerateEmpty(t *testing.T) {
	_, err := Generate(nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestDisambiguate(t *testing.T) {
	a := Disambiguate("tok")
	b := Disambiguate("tok")

	assert.True(t, strings.HasPrefix(a, "tok-"))
	assert.Len(t, a, len("tok-")+26)
	assert.NotEqual(t, a, b)
}
