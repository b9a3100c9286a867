// Package index builds the nearest-neighbor index over a reaction catalog.
//
// Every vector is L2-normalized on insertion so inner-product search equals
// cosine similarity. Search is exact.
package index
