// Package definitions decodes and queries component definitions.
//
// A definitions document describes one component (the root) and, when the
// root is a compound, the members it is built from and the connections
// between their slots:
//
//	{
//	  "componentArtifactId": "station",
//	  "components": {
//	    "station": {"artifactId": "station", "webpackageId": "weather@1.0", "slots": [...]},
//	    "sensor":  {"artifactId": "sensor", "slots": [...]}
//	  },
//	  "members": [{"memberId": "s1", "artifactId": "sensor"}],
//	  "connections": [
//	    {"connectionId": "c1",
//	     "source": {"memberIdRef": "s1", "slot": "value"},
//	     "destination": {"slot": "temperature"}}
//	  ]
//	}
//
// An endpoint without memberIdRef is the compound boundary itself. A slot's
// direction is a list of "input" and "output"; a bidirectional slot is
// listed with both.
//
// # Resolution
//
// Lookups return a [Resolution], which is either [Resolved] or [Missing].
// Callers switch on the concrete type instead of checking for zero values:
//
//	switch r := idx.ResolveMember(m).(type) {
//	case definitions.Resolved:
//	    use(r.Component)
//	case definitions.Missing:
//	    log.Error("component not found", "id", r.RequestedID)
//	}
//
// Dangling references are not decoding errors. [Index.Validate] reports
// them as a list of RESOLUTION_FAILED errors so the caller can log them and
// keep going.
package definitions
