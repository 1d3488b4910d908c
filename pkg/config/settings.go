package config

type (
	Settings struct {
		Logging  Logging  `json:"logging"`
		Filter   Filter   `json:"filter"`
		Database Database `json:"database"`
	}

	Logging struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info" json:"level"`
		Format string `envconfig:"LOG_FORMAT" default:"console" json:"format"`
	}

	Filter struct {
		// OrKeyMode is "exact" (only the "or" key opens a disjunction) or
		// "contains" (any key containing "or" does).
		OrKeyMode string `envconfig:"FILTER_OR_KEY_MODE" default:"exact" json:"or_key_mode"`
	}

	Database struct {
		DSN          string `envconfig:"SQLITE_DSN" default:"file:filterable.db?mode=ro" json:"dsn"`
		MaxOpenConns int    `envconfig:"SQLITE_MAX_OPEN_CONNS" default:"1" json:"max_open_conns"`
	}
)

const (
	OrKeyModeExact    = "exact"
	OrKeyModeContains = "contains"
)
