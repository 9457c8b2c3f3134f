// Package domain models forecast warnings and GSR (Ground Source Reporting)
// events for the warning scoring service.
//
// # Data Source
//
// Warnings are forecast records submitted by challenge participants. GSR
// events are the authoritative record of what actually occurred, compiled by
// the ground-truth team. Both arrive as homogeneous collections of flat JSON
// records; the upstream submission service bundles a participant's warnings
// together with the GSR slice for the scoring period and publishes the bundle
// to the Kafka source topic.
//
// # Record Conventions
//
// Field vocabulary (shared by warnings and GSR events):
//
//	Warning_ID / Event_ID    record identifier (string, required)
//	Event_Type               scoring category (string, required)
//	Country, State, City     location descriptors; State and City optional
//	Event_Date               ISO-8601 date or timestamp, e.g. "2024-04-26"
//	Case_Count               numeric count payload (count categories)
//	Latitude, Longitude      WGS-84 coordinates (discrete-event categories)
//	Actor, Event_Subtype     categorical facets (discrete-event categories)
//	Approximate_Location     GSR only; see below
//
// GSR ambiguity:
//
//	Actor and Event_Subtype in a GSR record may be a single string or an
//	array of acceptable strings. A warning matches the facet when its value
//	appears among the acceptable values. Parsing normalizes both shapes to
//	a slice.
//
// Approximate locations:
//
//	Approximate_Location marks GSR coordinates that are representative
//	rather than exact (e.g. a city centroid standing in for an unknown
//	street address). Upstream encoders disagree on the type: JSON booleans
//	and the strings "True"/"False" (any case) both occur in the wild, so
//	parsing accepts both. Approximate events are scored more leniently near
//	the distance boundary.
//
// Date handling:
//
//	Event_Date accepts a bare date ("2006-01-02") or an RFC 3339 timestamp.
//	Scoring compares calendar days only; time-of-day is discarded.
//
// # Reports
//
// Each scoring run produces a ScoreReport carrying a fresh run ID, the
// matches, the unmatched identifiers on both sides, aggregate metrics, and a
// per-pair audit trail under Details. The JSON key vocabulary ("Matches",
// "Unmatched Warnings", "Unmatched GSR", "Results", "Details") is part of the
// published contract with participants and must not change between releases.
package domain
