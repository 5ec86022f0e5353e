package config

type UpstreamConfig struct {
	NPMRegistry string `json:"npm_registry" yaml:"npm_registry"`
	GitHubAPI   string `json:"github_api" yaml:"github_api"`
	GitHubToken string `json:"-" yaml:"-"`
	ArtifactDir string `json:"artifact_dir" yaml:"artifact_dir"`
}

var Upstream = UpstreamConfig{
	NPMRegistry: "https://registry.npmjs.org",
	GitHubAPI:   "https://api.github.com",
	ArtifactDir: "./artifact_data",
}
