package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEncodeEWKT(t *testing.T) {
	t.Run("point", func(t *testing.T) {
		g := geometryOf(t, "Point", bson.A{6.1, 51.0})
		got, err := EncodeEWKT(g, DefaultSRID)
		require.NoError(t, err)
		assert.Equal(t, "SRID=4326;POINT(6.1 51.0)", got)
	})

	t.Run("point uses first two coordinates", func(t *testing.T) {
		g := geometryOf(t, "Point", bson.A{7.6251, 51.9615, 62.3})
		got, err := EncodeEWKT(g, DefaultSRID)
		require.NoError(t, err)
		assert.Equal(t, "SRID=4326;POINT(7.6251 51.9615)", got)
	})

	t.Run("integer coordinates", func(t *testing.T) {
		g := geometryOf(t, "Point", bson.A{int32(7), int64(-51)})
		got, err := EncodeEWKT(g, 3857)
		require.NoError(t, err)
		assert.Equal(t, "SRID=3857;POINT(7.0 -51.0)", got)
	})

	t.Run("polygon unsupported", func(t *testing.T) {
		g := geometryOf(t, "Polygon", bson.A{bson.A{bson.A{0.0, 0.0}, bson.A{1.0, 0.0}, bson.A{1.0, 1.0}, bson.A{0.0, 0.0}}})
		_, err := EncodeEWKT(g, DefaultSRID)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedGeometryType)

		var typeErr *UnsupportedGeometryTypeError
		require.True(t, errors.As(err, &typeErr))
		assert.Equal(t, "Polygon", typeErr.Type)
	})

	t.Run("point without coordinates", func(t *testing.T) {
		_, err := EncodeEWKT(Geometry{Type: "Point"}, DefaultSRID)
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("point with one coordinate", func(t *testing.T) {
		g := geometryOf(t, "Point", bson.A{6.1})
		_, err := EncodeEWKT(g, DefaultSRID)
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})
}

func TestFormatCoord(t *testing.T) {
	assert.Equal(t, "51.0", formatCoord(51))
	assert.Equal(t, "-0.5", formatCoord(-0.5))
	assert.Equal(t, "7.62510001", formatCoord(7.62510001))
}
