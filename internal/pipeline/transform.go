package pipeline

import (
	"github.com/couchcryptid/envirocar-etl/internal/domain"
)

// MeasurementTransformer implements Transformer using the domain row
// flattening for a fixed SRID.
type MeasurementTransformer struct {
	srid int
}

// NewTransformer creates a MeasurementTransformer. A non-positive srid
// selects domain.DefaultSRID.
func NewTransformer(srid int) *MeasurementTransformer {
	if srid <= 0 {
		srid = domain.DefaultSRID
	}
	return &MeasurementTransformer{srid: srid}
}

// SRID returns the spatial reference the transformer tags geometries with.
func (t *MeasurementTransformer) SRID() int { return t.srid }

func (t *MeasurementTransformer) Transform(m domain.Measurement) (domain.Row, error) {
	return domain.ParseMeasurement(m, t.srid)
}

// unknownPhenomena counts observations naming a phenomenon that is not a
// column of the run's table. Their values are carried in the row but never
// written.
func unknownPhenomena(m domain.Measurement, known domain.Phenomena) int {
	n := 0
	for _, o := range m.Phenomenons {
		if o.Phenomenon.ID == "" {
			continue
		}
		if !known.Contains(domain.ColumnName(o.Phenomenon.ID)) {
			n++
		}
	}
	return n
}
