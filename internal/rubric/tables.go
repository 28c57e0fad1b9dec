package rubric

// Witness returns the Witness Credibility (C) rubric.
func Witness() FactorTable {
	return FactorTable{
		Factor: FactorWitness,
		Name:   "Witness Credibility",
		Categories: []Category{
			{ID: "Weak", Min: 0.30, Max: 0.50, Description: "Single untrained civilian; anonymous; no supporting accounts"},
			{ID: "Moderate", Min: 0.55, Max: 0.65, Description: "2-3 civilians OR one trained observer, partial corroboration"},
			{ID: "Strong", Min: 0.70, Max: 0.80, Description: "Multiple trained observers OR multiple corroborating civilians"},
			{ID: "Very Strong", Min: 0.81, Max: 0.85, Description: "Trained personnel + multiple independent civilian accounts + documentation"},
		},
		Modifiers: []Modifier{
			{ID: "Independent written reports", Delta: 0.03},
			{ID: "Witnesses from >2 independent positions", Delta: 0.02},
			{ID: "Witness inconsistencies", Delta: -0.03},
			{ID: "Known misidentification / unreliable", Delta: -0.05},
		},
		HardCaps: []HardCap{
			{ID: "Single untrained civilian", Ceiling: 0.50},
			{ID: "No trained observer", Ceiling: 0.70},
			{ID: "Anonymous witness", Ceiling: 0.45},
		},
	}
}

// Environment returns the Environmental / Observation Conditions (E) rubric.
func Environment() FactorTable {
	return FactorTable{
		Factor: FactorEnvironment,
		Name:   "Environmental Conditions",
		Categories: []Category{
			{ID: "Weak", Min: 0.30, Max: 0.45, Description: "Fog, heavy cloud, night, brief duration (<10s)"},
			{ID: "Moderate", Min: 0.50, Max: 0.60, Description: "Partial obstruction, moderate duration"},
			{ID: "Strong", Min: 0.65, Max: 0.85, Description: "Clear sky OR controlled environment; long duration"},
		},
		Modifiers: []Modifier{
			{ID: "Multiple vantage points", Delta: 0.03},
			{ID: "Weather officially documented", Delta: 0.02},
			{ID: "Object >1 km away", Delta: -0.03},
			{ID: "Observation <5 seconds", Delta: -0.05},
		},
		HardCaps: []HardCap{
			{ID: "Heavy fog", Ceiling: 0.40},
			{ID: "Nighttime single perspective", Ceiling: 0.70},
		},
	}
}

// Physical returns the Physical / Sensor Evidence (P) rubric.
func Physical() FactorTable {
	return FactorTable{
		Factor: FactorPhysical,
		Name:   "Physical Evidence",
		Categories: []Category{
			{ID: "Weak", Min: 0.30, Max: 0.45, Description: "No physical traces, anecdotal only"},
			{ID: "Moderate", Min: 0.50, Max: 0.65, Description: "One sensor type or weak trace evidence"},
			{ID: "Strong", Min: 0.70, Max: 0.85, Description: "Two sensor types or confirmed anomalies"},
			{ID: "Very Strong", Min: 0.86, Max: 0.95, Description: "Multi-sensor + physical interaction"},
		},
		Modifiers: []Modifier{
			{ID: "EMP / interference / shutdown", Delta: 0.05},
			{ID: "Multi-frame imagery / long video", Delta: 0.03},
			{ID: "Independent lab analysis", Delta: 0.02},
			{ID: "Ambiguous/poor video quality", Delta: -0.05},
			{ID: "Inconsistent sensor readings", Delta: -0.07},
			{ID: "Time-stamped logs", Delta: 0.02},
		},
		HardCaps: []HardCap{
			{ID: "No sensor data", Ceiling: 0.55},
			{ID: "Only video", Ceiling: 0.75},
			{ID: "Multi-sensor MAX", Ceiling: 0.95},
		},
	}
}

// FlightTiers returns the four flight-behavior anomaly tiers in
// ascending order of anomalousness.
func FlightTiers() []FlightTier {
	return []FlightTier{
		{ID: "None / Conventional Flight", Delta: 0.00, Description: "Standard flight behavior; within expected aerodynamics"},
		{ID: "Minor Anomaly", Delta: 0.02, Description: "Slightly unusual maneuvers or speed; could be explainable"},
		{ID: "Moderate Anomaly", Delta: 0.04, Description: "Clearly abnormal movement, speed, or trajectory; limited explanation"},
		{ID: "Major Anomaly", Delta: 0.05, Description: "Highly unusual or impossible maneuvers; defies conventional physics"},
	}
}
