// Package file stores searchcore configuration as a TOML file on
// local disk. Nested tables are read into flat dot-notation keys, and
// every Set rewrites the file.
package file
