// Package extractors turns uploaded documents into line-oriented text.
//
// Each format lives in its own subpackage and implements driven.TextExtractor.
// The Registry selects an extractor by MIME type and falls back to the file
// extension, since browsers often upload with a generic content type.
package extractors
