package atmosphere

// FracP scales precipitation by a dimensionless fraction read from
// variable "frac_P".
func FracP(src ForcingSource) ScalarForcingOptions {
	return ScalarForcingOptions{
		OffsetName:  "frac_P",
		Description: "precipitation",
		LongName:    "precipitation multiplier, pure fraction",
		Units:       "1",
		Target:      TargetPrecipitation,
		Op:          Scale,
		Source:      src,
	}
}

// DeltaT shifts near-surface air temperature by "delta_T" kelvin.
func DeltaT(src ForcingSource) ScalarForcingOptions {
	return ScalarForcingOptions{
		OffsetName:  "delta_T",
		Description: "near-surface air temperature",
		LongName:    "near-surface air temperature offsets",
		Units:       "Kelvin",
		Target:      TargetTemperature,
		Op:          Shift,
		Source:      src,
	}
}

// DeltaP shifts precipitation by "delta_P", in the provider's storage
// units.
func DeltaP(src ForcingSource) ScalarForcingOptions {
	return ScalarForcingOptions{
		OffsetName:  "delta_P",
		Description: "precipitation",
		LongName:    "precipitation offsets",
		Units:       "kg m-2 second-1",
		Target:      TargetPrecipitation,
		Op:          Shift,
		Source:      src,
	}
}
