package optimid

import "strings"

// Normalize canonicalizes optimizer names and their known aliases.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.Trim(normalized, "_")
	if normalized == "" {
		return ""
	}
	if canonical, ok := normalizeKnownAlias(normalized); ok {
		return canonical
	}
	return normalized
}

func normalizeKnownAlias(normalized string) (string, bool) {
	for _, candidate := range aliasCandidates(normalized) {
		if canonical, ok := canonicalOptimizerName(candidate); ok {
			return canonical, true
		}
	}
	return "", false
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}

	trimmed := strings.TrimSuffix(normalized, "_optimizer")
	if trimmed == normalized {
		trimmed = strings.TrimSuffix(normalized, "optimizer")
	}
	trimmed = strings.Trim(trimmed, "_")
	if trimmed != "" && trimmed != normalized {
		candidates = append(candidates, trimmed)
	}

	compact := strings.ReplaceAll(trimmed, "_", "")
	if compact != "" && compact != trimmed {
		candidates = append(candidates, compact)
	}
	return candidates
}

func canonicalOptimizerName(alias string) (string, bool) {
	switch alias {
	case "sgd", "sgdm", "momentum":
		return "sgd", true
	case "adam":
		return "adam", true
	case "adamw", "adam_w":
		return "adamw", true
	case "adamp":
		return "adamp", true
	case "adabelief", "ada_belief":
		return "adabelief", true
	case "adabound", "ada_bound":
		return "adabound", true
	case "a2grad", "a2_grad":
		return "a2grad", true
	case "radam", "rectified_adam":
		return "radam", true
	case "lamb":
		return "lamb", true
	case "lion":
		return "lion", true
	case "prodigy":
		return "prodigy", true
	default:
		return "", false
	}
}
