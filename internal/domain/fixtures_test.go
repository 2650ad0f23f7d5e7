package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	testMeasurementID = "53b52282e4b0a3e7dcf56df6"
	testTrackID       = "53b52282e4b0a3e7dcf56de9"
	testSensorID      = "51bc53ab5064ba7f336ef920"
)

var testTime = time.Date(2014, time.July, 3, 9, 15, 46, 0, time.UTC)

func mustObjectID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return oid
}

// measurementDoc returns a complete source document as stored by enviroCar.
func measurementDoc(t *testing.T) bson.M {
	t.Helper()
	return bson.M{
		"_id":    mustObjectID(t, testMeasurementID),
		"track":  bson.D{{Key: "$ref", Value: "tracks"}, {Key: "$id", Value: mustObjectID(t, testTrackID)}},
		"sensor": bson.M{"_id": mustObjectID(t, testSensorID), "type": "car"},
		"time":   testTime,
		"geometry": bson.M{
			"type":        "Point",
			"coordinates": bson.A{7.6251, 51.9615},
		},
		"phenomenons": bson.A{
			bson.M{"phen": bson.M{"_id": "Speed", "unit": "km/h"}, "value": 42.5},
			bson.M{"phen": bson.M{"_id": "CO2", "unit": "kg/h"}, "value": int32(7)},
			bson.M{"phen": bson.M{"_id": "Engine Load", "unit": "%"}, "value": nil},
		},
	}
}

// decodeMeasurement round-trips doc through BSON the way the cursor does.
func decodeMeasurement(t *testing.T, doc bson.M) Measurement {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var m Measurement
	require.NoError(t, bson.Unmarshal(raw, &m))
	return m
}

func geometryOf(t *testing.T, typ string, coords any) Geometry {
	t.Helper()
	raw, err := bson.Marshal(bson.M{"type": typ, "coordinates": coords})
	require.NoError(t, err)
	var g Geometry
	require.NoError(t, bson.Unmarshal(raw, &g))
	return g
}
