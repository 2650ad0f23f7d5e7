// Package domain models enviroCar measurement data and its flat PostGIS form.
//
// # Data Source
//
// Measurements are stored by the enviroCar server in the MongoDB collection
// "measurements". Each document is one GPS fix recorded during a track:
//
//	{
//	  "_id":         ObjectId("53b52282e4b0a3e7dcf56df6"),
//	  "track":       DBRef("tracks", ObjectId("53b52282e4b0a3e7dcf56de9")),
//	  "sensor":      { "_id": ObjectId("51bc53ab5064ba7f336ef920"), ... },
//	  "time":        ISODate("2014-07-03T09:15:46Z"),
//	  "geometry":    { "type": "Point", "coordinates": [7.6251, 51.9615] },
//	  "phenomenons": [
//	    { "phen": { "_id": "Speed", "unit": "km/h" }, "value": 42.0 },
//	    { "phen": { "_id": "CO2", "unit": "kg/h" },   "value": 7.3 }
//	  ]
//	}
//
// The set of phenomena differs between cars and OBD adapters, so the
// destination schema cannot be known up front. It is discovered from the
// corpus at the start of every run (see [Phenomena]).
//
// # Column Names
//
// Phenomenon identifiers such as "Engine Load" or "MAF" are turned into
// column identifiers by [ColumnName]: lower-cased, with everything outside
// [a-z0-9] replaced by an underscore. Each phenomenon contributes a
// double precision value column and a char(16) unit column named
// "<column>_unit".
//
// # Wire Format
//
// Rows are streamed into PostgreSQL with COPY ... FROM STDIN in the text
// format: tab between columns, newline after each record, \N for null.
// Field values are written verbatim. A unit string containing a tab or a
// newline corrupts the record; enviroCar units never do.
package domain
