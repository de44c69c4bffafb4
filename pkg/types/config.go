package types

import (
	"path/filepath"
	"time"
)

const (
	DefaultDTDURL    = "https://dblp.uni-trier.de/xml/dblp.dtd"
	DefaultXMLURL    = "https://dblp.uni-trier.de/xml/dblp.xml.gz"
	DefaultCacheDir  = ".cache"
	DefaultBatchSize = 50000

	dtdFile = "dblp.dtd"
	xmlFile = "dblp.xml.gz"
	dbFile  = "dblp.db"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bibindex/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DumpConfig locates the two DBLP artifacts, remotely and in the cache.
type DumpConfig struct {
	HTTPConfig `yaml:",inline"`

	// CacheDir holds the downloaded artifacts and the store.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// DTDURL is the entity-definition file (dblp.dtd).
	DTDURL string `json:"dtd_url" yaml:"dtd_url"`

	// XMLURL is the compressed corpus (dblp.xml.gz).
	XMLURL string `json:"xml_url" yaml:"xml_url"`
}

// DTDPath is the cached entity-definition file.
func (c DumpConfig) DTDPath() string { return filepath.Join(c.CacheDir, dtdFile) }

// XMLPath is the cached compressed corpus.
func (c DumpConfig) XMLPath() string { return filepath.Join(c.CacheDir, xmlFile) }

// StoreConfig is the explicit handle to one store. Every index operation
// takes one, so several stores can coexist in a process.
type StoreConfig struct {
	// Dir holds the store file.
	Dir string `json:"dir" yaml:"dir"`
}

// DBPath is the canonical store file.
func (c StoreConfig) DBPath() string { return filepath.Join(c.Dir, dbFile) }

// IndexConfig holds settings for the build stage.
type IndexConfig struct {
	// BatchSize is the number of records inserted per transaction (default 50000).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Config groups all stage configurations.
type Config struct {
	Dump  DumpConfig  `json:"dump" yaml:"dump"`
	Store StoreConfig `json:"store" yaml:"store"`
	Index IndexConfig `json:"index" yaml:"index"`

	// Listen is the address for the read-only HTTP API.
	Listen string `json:"listen" yaml:"listen"`
}
