/*
	Project: Mahudhurio - location-gated attendance check-in
	Target: lecture halls & labs with one shared zone per deployment
*/
package mahudhurio

/*
TODO: admin: export attempts as CSV (per day & per student) from the analytics endpoints
TODO: scheduled window: open/close the window from a timetable instead of the admin toggle
TODO: more than one zone (one per building), selected by the admin when opening the window

FIXME: GPS accuracy: clients send no accuracy radius, so a fix 40m off near the edge is admitted or rejected at random
FIXME: dynamodb attempts store scans the whole table for analytics; add a GSI on submitted day once volume warrants it
*/
