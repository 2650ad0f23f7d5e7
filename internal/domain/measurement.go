package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Measurement is one enviroCar measurement document as decoded from MongoDB.
// Required references are pointers so that an absent field can be told apart
// from a zero value.
type Measurement struct {
	ID          primitive.ObjectID `bson:"_id"`
	Track       *DBRef             `bson:"track"`
	Sensor      *SensorRef         `bson:"sensor"`
	Time        *time.Time         `bson:"time"`
	Geometry    *Geometry          `bson:"geometry"`
	Phenomenons []Observation      `bson:"phenomenons"`
}

// DBRef is the MongoDB database reference convention used for the track.
type DBRef struct {
	Collection string             `bson:"$ref"`
	ID         primitive.ObjectID `bson:"$id"`
}

// SensorRef is the embedded sensor (car) document; only its ID is exported.
type SensorRef struct {
	ID primitive.ObjectID `bson:"_id"`
}

// Observation is a single phenomenon reading within a measurement.
type Observation struct {
	Phenomenon PhenomenonRef `bson:"phen"`
	Value      *float64      `bson:"value"` // nil when the adapter reported no value
}

// PhenomenonRef identifies the measured quantity and carries its unit. Unit
// is nil when the document has no unit or a null one; an empty string is kept.
type PhenomenonRef struct {
	ID   string  `bson:"_id"`
	Unit *string `bson:"unit"`
}

// Row is the flat destination record for one measurement. Values is keyed by
// column name; a column without an entry is written as null.
type Row struct {
	ID     string
	Geom   string
	Time   string
	Sensor string
	Track  string
	Values map[string]string
}
