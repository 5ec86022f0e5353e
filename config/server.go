package config

type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port string `json:"port" yaml:"port"`
	Mode string `json:"mode" yaml:"mode"`
	// AuthSecret verifies the X-Authorization tokens issued by the auth
	// collaborator. Overridden by REGISTRY_AUTH_SECRET.
	AuthSecret string `json:"-" yaml:"auth_secret"`
}

var Server = ServerConfig{
	Host:       "0.0.0.0",
	Port:       "8080",
	Mode:       "dev",
	AuthSecret: "registry-dev-secret",
}
