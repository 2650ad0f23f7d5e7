package domain

import (
	"fmt"
	"strconv"
)

// TimeLayout renders timestamps as ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ParseMeasurement flattens a measurement document into a Row.
//
// Documents missing the track, phenomenons, sensor, time or geometry field
// (checked in that order) are rejected with an error wrapping
// ErrMalformedDocument. Geometry encoding errors are returned as-is.
//
// Every observation is copied into Row.Values under its own normalized
// column, whether or not that column is part of the run's schema.
func ParseMeasurement(m Measurement, srid int) (Row, error) {
	if err := validateMeasurement(m); err != nil {
		return Row{}, err
	}

	geom, err := EncodeEWKT(*m.Geometry, srid)
	if err != nil {
		return Row{}, fmt.Errorf("measurement %s: %w", m.ID.Hex(), err)
	}

	return Row{
		ID:     m.ID.Hex(),
		Geom:   geom,
		Time:   m.Time.UTC().Format(TimeLayout),
		Sensor: m.Sensor.ID.Hex(),
		Track:  m.Track.ID.Hex(),
		Values: observationValues(m.Phenomenons),
	}, nil
}

func validateMeasurement(m Measurement) error {
	var missing string
	switch {
	case m.Track == nil:
		missing = "track"
	case m.Phenomenons == nil:
		missing = "phenomenons"
	case m.Sensor == nil:
		missing = "sensor"
	case m.Time == nil:
		missing = "time"
	case m.Geometry == nil:
		missing = "geometry"
	default:
		return nil
	}
	return fmt.Errorf("%w: measurement %s has no %s", ErrMalformedDocument, m.ID.Hex(), missing)
}

// observationValues builds the column -> text map. Observations without a
// phenomenon ID carry no column and are dropped.
func observationValues(obs []Observation) map[string]string {
	values := make(map[string]string, 2*len(obs))
	for _, o := range obs {
		if o.Phenomenon.ID == "" {
			continue
		}
		col := ColumnName(o.Phenomenon.ID)
		if o.Value != nil {
			values[col] = strconv.FormatFloat(*o.Value, 'f', -1, 64)
		} else {
			delete(values, col)
		}
		if o.Phenomenon.Unit != nil {
			values[UnitColumnName(col)] = *o.Phenomenon.Unit
		} else {
			delete(values, UnitColumnName(col))
		}
	}
	return values
}
