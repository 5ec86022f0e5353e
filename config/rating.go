package config

type RatingWeights struct {
	BusFactor              float64 `json:"bus_factor" yaml:"bus_factor"`
	Correctness            float64 `json:"correctness" yaml:"correctness"`
	RampUp                 float64 `json:"ramp_up" yaml:"ramp_up"`
	ResponsiveMaintainer   float64 `json:"responsive_maintainer" yaml:"responsive_maintainer"`
	LicenseScore           float64 `json:"license_score" yaml:"license_score"`
	GoodPinningPractice    float64 `json:"good_pinning_practice" yaml:"good_pinning_practice"`
	GoodEngineeringProcess float64 `json:"good_engineering_process" yaml:"good_engineering_process"`
}

type RatingConfig struct {
	// EnforceGate rejects ingestions whose NetScore falls below
	// MinNetScore. Off by default: sub-score collection is still being
	// stood up and nothing would clear the gate.
	EnforceGate bool          `json:"enforce_gate" yaml:"enforce_gate"`
	MinNetScore float64       `json:"min_net_score" yaml:"min_net_score"`
	Weights     RatingWeights `json:"weights" yaml:"weights"`
}

var Rating = RatingConfig{
	EnforceGate: false,
	MinNetScore: 0.5,
	Weights: RatingWeights{
		BusFactor:              2,
		Correctness:            3,
		RampUp:                 1,
		ResponsiveMaintainer:   3,
		LicenseScore:           2,
		GoodPinningPractice:    1,
		GoodEngineeringProcess: 2,
	},
}
