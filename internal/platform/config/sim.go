package config

// Sim is the simulator configuration. CLI flags default to these values.
type Sim struct {
	// Seed is the base seed; 0 draws a random one per invocation.
	Seed int64 `env:"DIAMONDX_SEED" envDefault:"0"`

	// Games is the Monte Carlo batch size.
	Games int `env:"DIAMONDX_GAMES" envDefault:"1000"`

	// Workers bounds Monte Carlo concurrency; 0 means GOMAXPROCS.
	Workers int `env:"DIAMONDX_WORKERS" envDefault:"0"`

	// DB is the SQLite path for stored runs; empty disables persistence.
	DB string `env:"DIAMONDX_DB"`

	// MaxSteps bounds a single run.
	MaxSteps int `env:"DIAMONDX_MAX_STEPS" envDefault:"2000"`

	// PitchSeconds is the simulated time charged per pitch.
	PitchSeconds int `env:"DIAMONDX_PITCH_SECONDS" envDefault:"20"`

	// Roster is a team definition file; empty uses the built-in teams.
	Roster string `env:"DIAMONDX_ROSTER"`

	OTelEndpoint string `env:"DIAMONDX_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"DIAMONDX_OTEL_ENABLED" envDefault:"true"`
}

// LoadSim parses Sim from the environment.
func LoadSim() (Sim, error) {
	var cfg Sim
	if err := ParseEnv(&cfg); err != nil {
		return Sim{}, err
	}
	return cfg, nil
}
