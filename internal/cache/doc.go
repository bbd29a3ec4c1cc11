// Package cache inventories and prunes the installer's on-disk wheel cache.
// The store walks <cache_dir>/wheels, turning every *.whl file into a Record
// (project name, PEP 440 version, origin subtree, frozen stat snapshot) and
// lazily resolving the per-subtree "link" sidecar that names the original
// source. Query narrows a scan by requirement selectors and an access-time
// cutoff, and Evictor deletes matched files after an audited confirmation.
// Records are rebuilt from disk on every scan; nothing is persisted.
package cache
