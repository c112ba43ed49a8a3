package pipeline

// BuiltinTemplates returns the set of built-in pipeline templates.
func BuiltinTemplates() []Template {
	return []Template{
		researchReport(),
		scanOnly(),
	}
}

// researchReport defines the canonical 3-hop flow: a research agent
// gathers findings, a writing agent turns them into a report, and a
// security agent scans the final content.
func researchReport() Template {
	return Template{
		ID:          "research-report",
		Name:        "Research Report",
		Description: "Research a topic, write it up, scan the result for leaked secrets.",
		Builtin:     true,
		PassMode:    PassConcat,
		Stages: []Stage{
			{Name: "Research", SkillTag: "research"},
			{Name: "Write", SkillTag: "writing"},
			{Name: "Scan", SkillTag: "security"},
		},
	}
}

// scanOnly defines a single-hop pipeline that routes content straight
// to a security-scan agent.
func scanOnly() Template {
	return Template{
		ID:          "scan-only",
		Name:        "Security Scan",
		Description: "Send the task text to a security-scan agent.",
		Builtin:     true,
		PassMode:    PassSubstitute,
		Stages: []Stage{
			{Name: "Scan", SkillTag: "security"},
		},
	}
}
