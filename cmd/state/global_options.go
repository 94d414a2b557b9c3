package state

// GlobalOptions contains global config values that apply for all smdecode sub-commands.
type GlobalOptions struct {
	NoColor   bool
	LogOutput string
	LogFormat string
	Verbose   bool
}

// GetDefaultGlobalOptions returns the default global flags.
func GetDefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		LogOutput: "stderr",
		LogFormat: "text",
	}
}

func consolidateGlobalFlags(defaultFlags GlobalOptions, env map[string]string) GlobalOptions {
	result := defaultFlags

	if val, ok := env["SMDECODE_LOG_OUTPUT"]; ok {
		result.LogOutput = val
	}
	if val, ok := env["SMDECODE_LOG_FORMAT"]; ok {
		result.LogFormat = val
	}
	if env["SMDECODE_NO_COLOR"] != "" {
		result.NoColor = true
	}
	// Support https://no-color.org/, even an empty value should disable the
	// color output.
	if _, ok := env["NO_COLOR"]; ok {
		result.NoColor = true
	}
	return result
}
