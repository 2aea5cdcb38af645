// Package sanitizer normalizes guest supplied input before validation and storage.
//
// All normalization functions are idempotent. Invalid input yields an empty
// string rather than an error so callers can treat "" as "missing or malformed".
//
// Normalization includes:
//   - Phone numbers: E.164 format (+[country][number]), local numbers resolved against supported regions
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Guest names: split into first and last name on the first space
package sanitizer
