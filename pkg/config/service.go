package config

type Service struct {
	config *Config
}

func NewService(cfg *Config) *Service {
	return &Service{config: cfg}
}

// RetrievePublicConfig returns a copy of the running config. Secrets are kept
// out of it by their json tags.
func (s *Service) RetrievePublicConfig() *Config {
	c := *s.config
	return &c
}
