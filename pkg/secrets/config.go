package secrets

// Config holds the master key material used to derive the encryption key.
type Config struct {
	MasterKey  string `env:"MFA_MASTER_KEY,required"`
	Iterations int    `env:"MFA_KDF_ITERATIONS" envDefault:"210000"`
}
