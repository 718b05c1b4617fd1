// Package record defines the structured entries appended to the shared
// backing file and the ordered Database that mirrors it.
//
// # File Format
//
// The backing file is a single UTF-8 JSON array of Record objects,
// pretty-printed with two-space indentation:
//
//	[
//	  {
//	    "name": "Ada",
//	    "email": "ada@example.com",
//	    "phone": "555-0100",
//	    "address": "1 Analytical Way",
//	    "gender": "Female",
//	    "age": 36
//	  }
//	]
//
// Each object carries exactly the keys name, email, phone, address, gender
// and age. Unknown keys are ignored when decoding and never written back.
//
// # Validation
//
// Validation normally happens in the form layer before a Record reaches the
// store. Validate repeats the same checks so that a malformed value can never
// be committed to the shared file.
package record
