package config

import "strings"

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowOrigins []string
}

// LoadCORSConfig reads ALLOW_CORS_ORIGIN as a comma separated list.  An
// empty value disables the CORS middleware.
func LoadCORSConfig() CORSConfig {
	var origins []string
	for _, o := range strings.Split(envStr("ALLOW_CORS_ORIGIN", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return CORSConfig{AllowOrigins: origins}
}
