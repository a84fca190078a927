package types

// Environment names the deployment environment. Internal error detail is only
// exposed to HTTP clients outside of production.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
)

// IsProduction returns true unless the environment is explicitly non-production
func (e Environment) IsProduction() bool {
	return e != EnvDevelopment && e != "dev" && e != "local" && e != "test"
}
