// Package memory provides in-memory implementations of the storage ports.
// Contents are lost when the process exits.
package memory
