// Package codes owns the textual label payloads printed on traveler and step
// labels and their parsing back into structured identity claims.
//
// Ownership boundary:
// - traveler QR payloads (NEXUS|...)
// - step QR metadata payloads (NEXUS-STEP|... and NEXUS-STEP-V2|...)
// - textual barcode payloads (NEX-...)
// - the universal scan classification order
//
// Everything here is pure and safe for concurrent use.
package codes
