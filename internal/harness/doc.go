// Package harness runs translation conformance scenarios.
//
// A scenario is a YAML file holding a field table selection and a list of
// cases. Each case is a query document (see package querydoc) and the
// translation or error it must produce:
//
//	name: default-fields
//	description: Rendering through the issue model's field table
//	cases:
//	  - name: summary contains
//	    query:
//	      where: {field: Summary, value: crash}
//	    expect:
//	      jql: 'Summary ~ "crash"'
//	  - name: zero limit
//	    query:
//	      limit: 0
//	    expect:
//	      error: INVALID_LIMIT
//
// Run checks every case and reports failures in the Result. RunWithGolden
// additionally compares the full result against a goldie snapshot, so a
// change in rendering that still satisfies the listed expectations is
// caught too.
package harness
