package main

import (
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/bibindex/pkg/types"
)

const (
	keyCacheDir  = "cache_dir"
	keyDTDURL    = "dtd_url"
	keyXMLURL    = "xml_url"
	keyTimeout   = "timeout"
	keyUserAgent = "user_agent"
	keyBatchSize = "batch_size"
	keyListen    = "listen"
)

const (
	defaultTimeout   = 30 * time.Minute
	defaultUserAgent = "bibindex/0.1"
	defaultListen    = "127.0.0.1:8080"
)

func setDefaults() {
	viper.SetDefault(keyCacheDir, types.DefaultCacheDir)
	viper.SetDefault(keyDTDURL, types.DefaultDTDURL)
	viper.SetDefault(keyXMLURL, types.DefaultXMLURL)
	viper.SetDefault(keyTimeout, defaultTimeout)
	viper.SetDefault(keyUserAgent, defaultUserAgent)
	viper.SetDefault(keyBatchSize, types.DefaultBatchSize)
	viper.SetDefault(keyListen, defaultListen)
}

// loadConfig assembles the stage configuration from flags, environment,
// and the config file, in viper's precedence order.
func loadConfig() types.Config {
	cacheDir := viper.GetString(keyCacheDir)
	return types.Config{
		Dump: types.DumpConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration(keyTimeout),
				UserAgent: viper.GetString(keyUserAgent),
			},
			CacheDir: cacheDir,
			DTDURL:   viper.GetString(keyDTDURL),
			XMLURL:   viper.GetString(keyXMLURL),
		},
		Store:  types.StoreConfig{Dir: cacheDir},
		Index:  types.IndexConfig{BatchSize: viper.GetInt(keyBatchSize)},
		Listen: viper.GetString(keyListen),
	}
}

func httpClient(cfg types.DumpConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}
