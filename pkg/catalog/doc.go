// Package catalog stores producers and the products that reference them.
//
// Service holds the operations used by the HTTP API and by imports; Store is
// the persistence boundary with memory, bbolt and Postgres implementations.
package catalog
