// Package domain models village drinking-water observations and the
// deterministic risk pipeline that turns them into an alert tier and advisory.
//
// # Data Source
//
// Observations originate from two upstreams: field sensor kits (pH probe,
// turbidimeter, ORP electrode, rain gauge) and community health workers who
// submit symptom counts or a free-text field report. The collector publishes
// each village/time-window record as flat JSON to the Kafka source topic.
// Any field may be absent; absence is never encoded as zero.
//
// # Measurement Conventions
//
//	pH:        0–14, safe band 6.5–8.5 inclusive.
//	Turbidity: NTU, regulatory step at 5 NTU, linear escalation from 10 NTU.
//	ORP:       millivolts; ≥300 mV indicates effective disinfection.
//	Rainfall:  mm over the observation window; ≥20 mm drives runoff risk.
//	Symptoms:  case counts of diarrhea, vomiting and fever in the window.
//
// # Risk Curves
//
// Each signal maps to a risk in [0,1]; a missing signal maps to 0:
//
//	pH:        0 in band, ramps to 1 over 2 units outside the nearest edge
//	Turbidity: <5 → 0.1 | <10 → 0.5 | else 0.7 + (t−10)/20, capped at 1
//	ORP:       ≥300 → 0.1 | ≥250 → 0.4 | else 0.7 + (250−orp)/100, capped at 1
//	Rainfall:  <5 → 0.1 | <20 → 0.4 | else 0.7 + (r−20)/60, capped at 1
//	Health:    (1.0·diarrhea + 0.7·vomiting + 0.3·fever) / 2.2, capped at 1
//
// Total risk is the fixed convex combination 0.15·pH + 0.25·turbidity +
// 0.15·ORP + 0.15·rainfall + 0.30·health. Weights are not renormalised when
// signals are missing, so sparse records read low; the NO_DATA override in
// [ClassifyTier] gates that bias.
//
// # Tiers
//
//	available_signals < 2 → NO_DATA
//	total < 0.25          → GREEN
//	total < 0.55          → YELLOW
//	otherwise             → RED
//
// # Field Reports
//
// Free text is parsed by an ordered keyword/negation table ([Lexicon]), not a
// learned model. The table ships embedded as lexicon.yaml and can be replaced
// at startup. See [Extractor.Extract] for the matching rules.
//
// # ID Generation
//
// Assessment IDs are UUIDv5 hashes of the normalised input, so replaying the
// same observation yields the same ID downstream. The hash covers the decoded
// readings, so key order and formatting in the source JSON do not change it.
package domain
