// Package catalog holds named demo molecules written in CUE.
//
// The built-in catalogue is embedded from molecules.cue. Users can add
// their own with LoadDir, which compiles a directory of CUE files. Every
// entry is unified with the schema in schema.cue:
//
//	molecule: omega: {
//		description: "(λx.x x)(λx.x x)"
//		mol: """
//			L b x r
//			...
//			"""
//		rules: ["BETA", "DIST", "FAN-IN", "PRUNING", "COMB"]
//		expect: {steps: 3, halt: "normal_form"}
//	}
//
// mol is wire-format text (see graph.Parse). rules lists rule names in
// evaluation order; an empty list means rules.DefaultRules. expect, when
// present, is checked by `icomb check` against a deterministic run.
package catalog
