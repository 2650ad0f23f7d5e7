package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"go.mongodb.org/mongo-driver/bson"
)

// DefaultSRID is WGS-84, the reference system of all enviroCar geometries.
const DefaultSRID = 4326

// Geometry is a GeoJSON geometry as stored in the source document. The
// coordinates are kept raw because their nesting depends on Type.
type Geometry struct {
	Type        string        `bson:"type"`
	Coordinates bson.RawValue `bson:"coordinates"`
}

// Decode converts the GeoJSON document into its go-geom variant with the
// given SRID. Unknown type discriminators yield *UnsupportedGeometryTypeError.
func (g Geometry) Decode(srid int) (geom.T, error) {
	switch g.Type {
	case "Point":
		if g.Coordinates.Type == 0 {
			return nil, fmt.Errorf("%w: point has no coordinates", ErrMalformedDocument)
		}
		var coords []float64
		if err := g.Coordinates.Unmarshal(&coords); err != nil {
			return nil, fmt.Errorf("%w: point coordinates: %w", ErrMalformedDocument, err)
		}
		if len(coords) < 2 {
			return nil, fmt.Errorf("%w: point has %d coordinates", ErrMalformedDocument, len(coords))
		}
		return geom.NewPointFlat(geom.XY, coords[:2]).SetSRID(srid), nil
	default:
		return nil, &UnsupportedGeometryTypeError{Type: g.Type}
	}
}

// EncodeEWKT renders g as an SRID-qualified well-known-text literal, e.g.
// "SRID=4326;POINT(6.1 51.0)". PostGIS accepts this form in COPY text input.
func EncodeEWKT(g Geometry, srid int) (string, error) {
	t, err := g.Decode(srid)
	if err != nil {
		return "", err
	}
	return encodeEWKT(t)
}

// encodeEWKT dispatches on the geometry variant. Supporting another shape
// means adding a case here and in Geometry.Decode.
func encodeEWKT(t geom.T) (string, error) {
	switch v := t.(type) {
	case *geom.Point:
		return fmt.Sprintf("SRID=%d;POINT(%s %s)", v.SRID(), formatCoord(v.X()), formatCoord(v.Y())), nil
	default:
		return "", &UnsupportedGeometryTypeError{Type: fmt.Sprintf("%T", t)}
	}
}

// formatCoord prints the shortest round-trip form, keeping a decimal point so
// whole degrees read as 51.0 rather than 51.
func formatCoord(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
