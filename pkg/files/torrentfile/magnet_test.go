package torrentfile_test

import (
	"encoding/base32"
	"testing"

	"github.com/jamesainslie/tfiles/pkg/files/torrentfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexHash = "c9e15763f722f23e98a29decdfae341b98d53056"

func TestParseMagnetLink(t *testing.T) {
	t.Run("extracts hash, name and trackers", func(t *testing.T) {
		uri := "magnet:?xt=urn:btih:" + hexHash +
			"&dn=Cosmos+Laundromat&tr=udp%3A%2F%2Fexplodie.org%3A6969&tr=wss%3A%2F%2Ftracker.btorrent.xyz"

		link, err := torrentfile.ParseMagnetLink(uri)
		require.NoError(t, err)

		assert.Equal(t, uri, link.URI)
		assert.Equal(t, hexHash, link.InfoHashV1)
		assert.Equal(t, "Cosmos Laundromat", link.DisplayName)
		assert.Equal(t, [][]string{{"udp://explodie.org:6969"}, {"wss://tracker.btorrent.xyz"}}, link.Trackers)
	})

	t.Run("normalizes uppercase hex", func(t *testing.T) {
		link, err := torrentfile.ParseMagnetLink("magnet:?xt=urn:btih:C9E15763F722F23E98A29DECDFAE341B98D53056")
		require.NoError(t, err)
		assert.Equal(t, hexHash, link.InfoHashV1)
	})

	t.Run("decodes base32 hashes", func(t *testing.T) {
		raw := make([]byte, 20)
		for i := range raw {
			raw[i] = byte(i)
		}
		encoded := base32.StdEncoding.EncodeToString(raw)
		require.Len(t, encoded, 32)

		link, err := torrentfile.ParseMagnetLink("magnet:?xt=urn:btih:" + encoded)
		require.NoError(t, err)
		assert.Equal(t, "000102030405060708090a0b0c0d0e0f10111213", link.InfoHashV1)
	})

	t.Run("skips non-v1 topics", func(t *testing.T) {
		link, err := torrentfile.ParseMagnetLink("magnet:?xt=urn:btmh:1220abcd&xt=urn:btih:" + hexHash)
		require.NoError(t, err)
		assert.Equal(t, hexHash, link.InfoHashV1)
	})

	t.Run("rejects invalid links", func(t *testing.T) {
		for _, uri := range []string{
			"https://example.com/?xt=urn:btih:" + hexHash,
			"magnet:?dn=nothing",
			"magnet:?xt=urn:btih:abc",
			"magnet:?xt=urn:btih:zz" + hexHash[2:],
		} {
			_, err := torrentfile.ParseMagnetLink(uri)
			assert.ErrorIs(t, err, torrentfile.ErrInvalidMagnetLink, uri)
		}
	})
}
