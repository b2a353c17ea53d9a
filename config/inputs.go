package config

import "github.com/kilianp07/powermatch/auth"

// InputsConfig locates the scenario files. Paths may be local files or
// http(s) URLs.
type InputsConfig struct {
	// Tables is a YAML file holding the constraint, facility, optimisation
	// and order tables.
	Tables string `json:"tables"`
	// Hourly is the CSV generation matrix with its Load column.
	Hourly string `json:"hourly"`
	// Auth authorises remote inputs with OAuth2 client credentials.
	Auth auth.Conf `json:"auth"`
}
