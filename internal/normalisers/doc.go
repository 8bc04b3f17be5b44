// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type while keeping paragraph breaks as blank
// lines.
//
// Normalisers are registered with the file loader at startup.
package normalisers
