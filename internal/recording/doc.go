// Package recording checks local asciicast files before they are uploaded.
//
// Three formats are recognized. Version 1 is a single JSON document carrying
// "version": 1 and a "stdout" event array. Versions 2 and 3 are newline
// delimited: the first line is a JSON header whose "version" field is 2 or 3,
// followed by one event per line. Only the header is inspected for v2/v3, so
// validation cost does not grow with recording length.
package recording
