// Package document defines the notebook project model: a project is an
// ordered collection of notebooks, each an ordered collection of blocks.
// Documents are loaded from YAML project files and are treated as read-only
// after loading; every transformation returns a new copy.
package document
