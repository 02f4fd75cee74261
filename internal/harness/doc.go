// Package harness runs conformance scenarios against the check engine.
//
// A scenario is a YAML file naming one trip document and a list of cases.
// Each case is a candidate itinerary plus an optional expect clause:
//
//	name: beijing_xian
//	description: Two-city trip checked against passing and failing plans
//	document: ../documents/beijing_xian.yaml
//	records:
//	  - category: restaurant
//	    city: Beijing
//	    items:
//	      - {id: r1, type: snack, cost: 40}
//	cases:
//	  - name: within_budget
//	    candidate:
//	      trip: {mode: train, total_cost: 4000, budget: 6000}
//	    expect:
//	      satisfied: true
//	      slots:
//	        back_transport_constraints: true
//
// Run checks every case through engine.Run on a fresh in-memory store, so
// option records seeded by the scenario are loaded exactly as they would be
// in production. Run IDs are derived from scenario and case names and trace
// seq values come from a logical clock, which keeps traces byte-stable for
// golden comparison (RunWithGolden). After all cases, every stored run is
// replayed and must reproduce its outcome.
package harness
